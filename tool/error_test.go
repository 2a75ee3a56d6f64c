package tool

import (
	"errors"
	"fmt"
	"testing"
)

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError(ToolErrorCodeUnknownTool, "Unknown tool: x", false, ErrUnknownTool)
	if err.Error() != "UNKNOWN_TOOL: Unknown tool: x" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatal("errors.Is(err, ErrUnknownTool) = false, want true")
	}
	if got := ErrorMessage(err); got != "Unknown tool: x" {
		t.Fatalf("ErrorMessage() = %q", got)
	}
}

func TestToolErrorDefaults(t *testing.T) {
	err := NewToolError("", "", false, errors.New("boom"))
	if err.Code != ToolErrorCodeInvocationFailed {
		t.Fatalf("Code = %q, want %q", err.Code, ToolErrorCodeInvocationFailed)
	}
	if err.Message != "boom" {
		t.Fatalf("Message = %q, want boom", err.Message)
	}
}

func TestErrorCodeThroughWrapping(t *testing.T) {
	base := WithDetails(NewToolError(ToolErrorCodeProcessFailed, "failed", false, nil), map[string]any{"exit_code": 1})
	wrapped := fmt.Errorf("outer: %w", base)

	if got := ErrorCode(wrapped); got != ToolErrorCodeProcessFailed {
		t.Fatalf("ErrorCode() = %q", got)
	}
	toolErr, ok := AsToolError(wrapped)
	if !ok || toolErr.Details["exit_code"] != 1 {
		t.Fatalf("AsToolError() = %#v, %v", toolErr, ok)
	}
	if got := ErrorCodeOrDefault(errors.New("plain"), ""); got != ToolErrorCodeInvocationFailed {
		t.Fatalf("ErrorCodeOrDefault() = %q", got)
	}
	if got := ErrorMessage(errors.New("plain")); got != "plain" {
		t.Fatalf("ErrorMessage() = %q", got)
	}
}

type recordingObserver struct {
	calls    []CallObservation
	commands []CommandObservation
}

func (r *recordingObserver) ObserveCall(o CallObservation)       { r.calls = append(r.calls, o) }
func (r *recordingObserver) ObserveCommand(o CommandObservation) { r.commands = append(r.commands, o) }

func TestMultiObserverFansOut(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}
	observer := MultiObserver(first, nil, second)

	observer.ObserveCall(CallObservation{ToolName: "a"})
	observer.ObserveCommand(CommandObservation{ExitCode: 2})

	for i, rec := range []*recordingObserver{first, second} {
		if len(rec.calls) != 1 || len(rec.commands) != 1 {
			t.Fatalf("observer %d got %d calls, %d commands", i, len(rec.calls), len(rec.commands))
		}
	}
	if _, ok := MultiObserver().(NopObserver); !ok {
		t.Fatal("MultiObserver() with no observers should be NopObserver")
	}
	if MultiObserver(first) != Observer(first) {
		t.Fatal("MultiObserver() with one observer should return it directly")
	}
}
