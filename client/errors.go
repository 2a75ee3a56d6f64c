package client

import (
	"errors"
	"fmt"
)

// ErrUnboundTool is returned by Call for names the fetched catalog does not define.
var ErrUnboundTool = errors.New("client: tool is not bound")

// TransportError reports a failure to reach the server or to read its reply.
type TransportError struct {
	Op  string
	URL string
	// StatusCode is set when the server answered with a non-2xx status.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("client: %s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("client: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CallError carries the error field of a call envelope.
type CallError struct {
	ToolName string
	Message  string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("client: tool call error: %s: %s", e.ToolName, e.Message)
}
