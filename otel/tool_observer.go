package otel

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/modalmcp/tool"
)

// ToolObserver records tool calls and command executions into OpenTelemetry.
type ToolObserver struct {
	tracer trace.Tracer

	calls          metric.Int64Counter
	callLatency    metric.Float64Histogram
	commands       metric.Int64Counter
	commandLatency metric.Float64Histogram
}

// NewToolObserver creates a tool observer bound to the provided meter/tracer.
// A nil tracer disables spans.
func NewToolObserver(meter metric.Meter, tracer trace.Tracer) (*ToolObserver, error) {
	calls, err := meter.Int64Counter(
		"modalmcp.tool.calls",
		metric.WithDescription("Number of dispatched tool calls"),
	)
	if err != nil {
		return nil, err
	}
	callLatency, err := meter.Float64Histogram(
		"modalmcp.tool.latency",
		metric.WithDescription("Tool call latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	commands, err := meter.Int64Counter(
		"modalmcp.command.executions",
		metric.WithDescription("Number of external command executions"),
	)
	if err != nil {
		return nil, err
	}
	commandLatency, err := meter.Float64Histogram(
		"modalmcp.command.latency",
		metric.WithDescription("External command latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ToolObserver{
		tracer:         tracer,
		calls:          calls,
		callLatency:    callLatency,
		commands:       commands,
		commandLatency: commandLatency,
	}, nil
}

// ObserveCall records one dispatched call.
func (o *ToolObserver) ObserveCall(observation tool.CallObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool_name", observation.ToolName),
		attribute.Bool("direct", observation.Direct),
		attribute.Bool("success", observation.Success),
	}
	if observation.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", observation.ErrorCode))
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.calls.Add(ctx, 1, options)
	o.callLatency.Record(ctx, seconds(observation.DurationMS), options)

	spanAttrs := append(attrs, attribute.String("call_id", observation.CallID))
	o.span(ctx, "tool.call", observation.DurationMS, spanAttrs, observation.Success, observation.ErrorCode)
}

// ObserveCommand records one command execution.
func (o *ToolObserver) ObserveCommand(observation tool.CommandObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("subcommand", subcommand(observation.Argv)),
		attribute.Bool("background", observation.Background),
		attribute.Bool("success", observation.Succeeded),
		attribute.Int("exit_code", observation.ExitCode),
	}

	ctx := context.Background()
	options := metric.WithAttributes(attrs...)
	o.commands.Add(ctx, 1, options)
	o.commandLatency.Record(ctx, seconds(observation.DurationMS), options)

	spanAttrs := append(attrs, attribute.String("command", strings.Join(observation.Argv, " ")))
	if observation.PID > 0 {
		spanAttrs = append(spanAttrs, attribute.Int("pid", observation.PID))
	}
	o.span(ctx, "command.execute", observation.DurationMS, spanAttrs, observation.Succeeded, "command failed")
}

// span emits a span covering the observed duration, ending now.
func (o *ToolObserver) span(ctx context.Context, name string, durationMS int64, attrs []attribute.KeyValue, ok bool, failure string) {
	if o.tracer == nil {
		return
	}
	end := time.Now()
	start := end.Add(-time.Duration(durationMS) * time.Millisecond)
	_, span := o.tracer.Start(ctx, name, trace.WithTimestamp(start), trace.WithAttributes(attrs...))
	if ok {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, failure)
	}
	span.End(trace.WithTimestamp(end))
}

func seconds(ms int64) float64 {
	return float64(time.Duration(ms)*time.Millisecond) / float64(time.Second)
}

// subcommand picks the CLI verb(s) out of argv, e.g. "volume ls" or "deploy".
func subcommand(argv []string) string {
	for i, arg := range argv {
		switch arg {
		case "volume":
			if i+1 < len(argv) {
				return "volume " + argv[i+1]
			}
			return arg
		case "deploy", "run":
			return arg
		}
	}
	return "unknown"
}

var _ tool.Observer = (*ToolObserver)(nil)
