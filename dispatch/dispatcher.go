package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/modalmcp/tool"
)

// Config configures a Dispatcher.
type Config struct {
	Catalog  *tool.Catalog
	Handlers map[string]Handler
	Logger   *slog.Logger
	Observer tool.Observer
}

// Dispatcher routes tool calls to handlers. The catalog and handler table are
// fixed at construction, so a Dispatcher is safe for concurrent use.
type Dispatcher struct {
	catalog  *tool.Catalog
	handlers map[string]Handler
	logger   *slog.Logger
	observer tool.Observer
}

// New validates that every catalog tool has a handler and every handler has a
// catalog entry.
func New(cfg Config) (*Dispatcher, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("dispatch: catalog is required")
	}

	var problems []string
	for _, name := range cfg.Catalog.Names() {
		if cfg.Handlers[name] == nil {
			problems = append(problems, fmt.Sprintf("tool %q has no handler", name))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.Handlers)) {
		if _, ok := cfg.Catalog.Lookup(name); !ok {
			problems = append(problems, fmt.Sprintf("handler %q has no catalog entry", name))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("dispatch: %s", strings.Join(problems, "; "))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		catalog:  cfg.Catalog,
		handlers: maps.Clone(cfg.Handlers),
		logger:   logger,
		observer: tool.ObserverOrNop(cfg.Observer),
	}, nil
}

// Catalog returns the catalog the dispatcher serves.
func (d *Dispatcher) Catalog() *tool.Catalog {
	return d.catalog
}

// Dispatch handles a generic call. It never returns an error: every failure
// is reported in the response's error field with an empty tool_output.
func (d *Dispatcher) Dispatch(ctx context.Context, req tool.CallRequest) tool.CallResponse {
	output, err := d.call(ctx, req.ToolName, req.ToolInput, false)
	if err != nil {
		return tool.FailureResponse(req.ToolName, tool.ErrorMessage(err))
	}
	return tool.SuccessResponse(req.ToolName, output)
}

// Invoke handles a direct per-tool call. Errors are always *tool.ToolError
// coded UNKNOWN_TOOL, VALIDATION_FAILED or INVOCATION_FAILED.
func (d *Dispatcher) Invoke(ctx context.Context, name string, input tool.Input) (map[string]any, error) {
	return d.call(ctx, name, input, true)
}

func (d *Dispatcher) call(ctx context.Context, name string, input tool.Input, direct bool) (output map[string]any, err error) {
	callID := uuid.NewString()
	start := time.Now()
	logger := d.logger.With("call_id", callID, "tool", name)
	logger.Debug("tool call started", "direct", direct)

	defer func() {
		elapsed := time.Since(start)
		obs := tool.CallObservation{
			CallID:     callID,
			ToolName:   name,
			Direct:     direct,
			DurationMS: elapsed.Milliseconds(),
			Success:    err == nil,
		}
		if err != nil {
			obs.ErrorCode = tool.ErrorCodeOrDefault(err, tool.ToolErrorCodeInvocationFailed)
			obs.Error = tool.ErrorMessage(err)
			logger.Warn("tool call rejected", "duration", elapsed, "error_code", obs.ErrorCode, "error", obs.Error)
		} else if failed, code, message := outputFailure(output); failed {
			obs.Success = false
			obs.ErrorCode = code
			obs.Error = message
			logger.Info("tool call completed with failure", "duration", elapsed, "error_code", code)
		} else {
			logger.Info("tool call completed", "duration", elapsed)
		}
		d.observer.ObserveCall(obs)
	}()

	descriptor, ok := d.catalog.Lookup(name)
	if !ok {
		return nil, tool.NewToolError(tool.ToolErrorCodeUnknownTool, "Unknown tool: "+name, false, tool.ErrUnknownTool)
	}
	handler := d.handlers[name]

	coerced, diags := tool.ValidateInput(descriptor.InputSchema, input)
	if len(diags) > 0 {
		return nil, tool.WithDetails(
			tool.NewToolError(
				tool.ToolErrorCodeValidation,
				fmt.Sprintf("Invalid input for %s: %s", name, tool.JoinDiagnostics(diags)),
				false,
				tool.ErrInvalidInput,
			),
			map[string]any{"diagnostics": diags},
		)
	}

	decoded, err := handler.Decode(coerced)
	if err != nil {
		return nil, tool.NewToolError(
			tool.ToolErrorCodeValidation,
			fmt.Sprintf("Invalid input for %s: %v", name, err),
			false,
			errors.Join(tool.ErrInvalidInput, err),
		)
	}

	return invokeHandler(ctx, handler, decoded)
}

func invokeHandler(ctx context.Context, handler Handler, input any) (output map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = nil
			err = tool.NewToolError(tool.ToolErrorCodeInvocationFailed, fmt.Sprintf("tool panicked: %v", r), false, nil)
		}
	}()

	output, err = handler.Invoke(ctx, input)
	if err != nil {
		if _, ok := tool.AsToolError(err); ok {
			return nil, err
		}
		return nil, tool.NewToolError(tool.ToolErrorCodeInvocationFailed, err.Error(), false, err)
	}
	if output == nil {
		output = map[string]any{}
	}
	return output, nil
}

// outputFailure reports whether a handler output describes a failed execution.
func outputFailure(output map[string]any) (bool, string, string) {
	success, ok := output["success"].(bool)
	if !ok || success {
		return false, "", ""
	}
	code, _ := output["error_code"].(string)
	if code == "" {
		code = tool.ToolErrorCodeInvocationFailed
	}
	message, _ := output["error"].(string)
	return true, code, message
}
