package tool

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ToolErrorCodeUnknownTool is returned when a call names a tool the catalog does not define.
	ToolErrorCodeUnknownTool = "UNKNOWN_TOOL"
	// ToolErrorCodeValidation is returned when tool_input does not match the input schema.
	ToolErrorCodeValidation = "VALIDATION_FAILED"
	// ToolErrorCodeProcessFailed is returned when the wrapped command exits unsuccessfully.
	ToolErrorCodeProcessFailed = "PROCESS_FAILED"
	// ToolErrorCodeOutputParse is returned when command output cannot be decoded.
	ToolErrorCodeOutputParse = "OUTPUT_PARSE_FAILED"
	// ToolErrorCodeTransportFailure is returned when a client cannot reach the service.
	ToolErrorCodeTransportFailure = "TRANSPORT_FAILURE"
	// ToolErrorCodeInvocationFailed is a generic fallback for tool invocation failures.
	ToolErrorCodeInvocationFailed = "INVOCATION_FAILED"
)

var (
	// ErrUnknownTool is the cause attached to UNKNOWN_TOOL errors.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidInput is the cause attached to VALIDATION_FAILED errors.
	ErrInvalidInput = errors.New("invalid tool input")
)

// ToolError is a structured invocation error that keeps its machine-readable
// code as it moves between the dispatcher, the HTTP layer and clients.
type ToolError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	msg := strings.TrimSpace(e.Message)
	switch {
	case code == "" && msg == "":
		return ToolErrorCodeInvocationFailed
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return fmt.Sprintf("%s: %s", code, msg)
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewToolError builds a ToolError. An empty code falls back to
// INVOCATION_FAILED and an empty message falls back to the cause text.
func NewToolError(code, message string, retryable bool, cause error) *ToolError {
	cleanCode := strings.TrimSpace(code)
	if cleanCode == "" {
		cleanCode = ToolErrorCodeInvocationFailed
	}
	cleanMsg := strings.TrimSpace(message)
	if cleanMsg == "" && cause != nil {
		cleanMsg = cause.Error()
	}
	return &ToolError{
		Code:      cleanCode,
		Message:   cleanMsg,
		Retryable: retryable,
		Cause:     cause,
	}
}

// WithDetails merges details into err and returns it.
func WithDetails(err *ToolError, details map[string]any) *ToolError {
	if err == nil {
		return nil
	}
	if len(details) == 0 {
		return err
	}
	if err.Details == nil {
		err.Details = make(map[string]any, len(details))
	}
	for key, value := range details {
		err.Details[key] = value
	}
	return err
}

// AsToolError extracts a ToolError from err's chain.
func AsToolError(err error) (*ToolError, bool) {
	if err == nil {
		return nil, false
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}

// ErrorCode returns the ToolError code in err's chain, or "".
func ErrorCode(err error) string {
	if toolErr, ok := AsToolError(err); ok && toolErr != nil {
		return toolErr.Code
	}
	return ""
}

// ErrorCodeOrDefault returns ErrorCode(err), or fallback when err carries no code.
func ErrorCodeOrDefault(err error, fallback string) string {
	if code := ErrorCode(err); strings.TrimSpace(code) != "" {
		return code
	}
	if strings.TrimSpace(fallback) == "" {
		return ToolErrorCodeInvocationFailed
	}
	return fallback
}

// ErrorMessage returns the human-readable part of err. ToolErrors report their
// Message without the code prefix.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if toolErr, ok := AsToolError(err); ok && toolErr != nil && strings.TrimSpace(toolErr.Message) != "" {
		return toolErr.Message
	}
	return err.Error()
}
