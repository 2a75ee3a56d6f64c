package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/petal-labs/modalmcp/tool"
)

const unknownToolName = "unknown"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.Catalog().Document())
}

// handleCall serves the generic envelope endpoint. It always answers 200;
// failures of any kind are reported in the envelope's error field.
func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusOK, tool.FailureResponse(unknownToolName, "Invalid request: "+err.Error()))
		return
	}

	var req tool.CallRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.logger.Warn("malformed tool call", "error", err)
		writeJSON(w, http.StatusOK, tool.FailureResponse(peekToolName(body), "Invalid request: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.ToolName) == "" {
		writeJSON(w, http.StatusOK, tool.FailureResponse(unknownToolName, "Invalid request: tool_name is required"))
		return
	}

	writeJSON(w, http.StatusOK, s.dispatcher.Dispatch(r.Context(), req))
}

// handleToolCall serves /mcp/tools/{tool_name}, whose body is the tool input
// itself. Errors map to HTTP statuses.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "tool_name")

	var input tool.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, tool.ToolErrorCodeValidation, "Invalid request body: "+err.Error())
		return
	}

	output, err := s.dispatcher.Invoke(r.Context(), name, input)
	if err != nil {
		code := tool.ErrorCodeOrDefault(err, tool.ToolErrorCodeInvocationFailed)
		writeError(w, statusForCode(code), code, tool.ErrorMessage(err), diagnosticDetails(err)...)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func statusForCode(code string) int {
	switch code {
	case tool.ToolErrorCodeUnknownTool:
		return http.StatusNotFound
	case tool.ToolErrorCodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func diagnosticDetails(err error) []string {
	toolErr, ok := tool.AsToolError(err)
	if !ok {
		return nil
	}
	diags, ok := toolErr.Details["diagnostics"].([]tool.Diagnostic)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Field+": "+d.Message)
	}
	return out
}

// peekToolName recovers tool_name from a body that failed full decoding.
func peekToolName(body []byte) string {
	var partial struct {
		ToolName json.RawMessage `json:"tool_name"`
	}
	if err := json.Unmarshal(body, &partial); err != nil {
		return unknownToolName
	}
	var name string
	if err := json.Unmarshal(partial.ToolName, &name); err != nil || strings.TrimSpace(name) == "" {
		return unknownToolName
	}
	return name
}
