package tool

// CallRequest is the generic tool call payload.
type CallRequest struct {
	ToolName  string `json:"tool_name"`
	ToolInput Input  `json:"tool_input"`
}

// CallResponse is the generic tool call result. Both tool_output and error are
// always present on the wire; error is null on success and tool_output is an
// empty object when error is set.
type CallResponse struct {
	ToolName   string         `json:"tool_name"`
	ToolOutput map[string]any `json:"tool_output"`
	Error      *string        `json:"error"`
}

// NewCallRequest builds a request from a plain input map.
func NewCallRequest(name string, input map[string]any) CallRequest {
	return CallRequest{ToolName: name, ToolInput: NewInput(input)}
}

// SuccessResponse wraps a handler output.
func SuccessResponse(name string, output map[string]any) CallResponse {
	if output == nil {
		output = map[string]any{}
	}
	return CallResponse{ToolName: name, ToolOutput: output}
}

// FailureResponse reports message with an empty output.
func FailureResponse(name, message string) CallResponse {
	return CallResponse{
		ToolName:   name,
		ToolOutput: map[string]any{},
		Error:      &message,
	}
}

// Failed reports whether the response carries an error.
func (r CallResponse) Failed() bool {
	return r.Error != nil
}
