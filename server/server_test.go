package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/petal-labs/modalmcp/command"
	"github.com/petal-labs/modalmcp/dispatch"
	"github.com/petal-labs/modalmcp/modal"
	"github.com/petal-labs/modalmcp/tool"
)

type recordingExecutor struct {
	mu     sync.Mutex
	argv   [][]string
	result command.Result
}

func (e *recordingExecutor) Execute(_ context.Context, spec command.Spec) command.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.argv = append(e.argv, slices.Clone(spec.Argv))
	res := e.result
	res.Argv = append([]string{"modal"}, spec.Argv...)
	return res
}

func newTestServer(t *testing.T, exec *recordingExecutor) *Server {
	t.Helper()
	catalog, err := modal.Catalog()
	if err != nil {
		t.Fatalf("modal.Catalog() error = %v", err)
	}
	d, err := dispatch.New(dispatch.Config{
		Catalog:  catalog,
		Handlers: modal.NewToolset(modal.Config{Executor: exec}).Handlers(),
	})
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	return NewServer(ServerConfig{Dispatcher: d})
}

func serve(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rr.Body.String())
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &recordingExecutor{})
	rr := serve(t, s, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := decodeEnvelope(t, rr)["status"]; got != "ok" {
		t.Fatalf("status field = %v, want ok", got)
	}
}

func TestSchema(t *testing.T) {
	s := newTestServer(t, &recordingExecutor{})
	rr := serve(t, s, http.MethodGet, "/mcp/schema", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var doc tool.CatalogDocument
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if doc.SchemaVersion != "v1" || len(doc.Tools) != 8 {
		t.Fatalf("schema = %+v", doc)
	}
	if doc.Tools[0].Name != modal.ToolDeployApp || !doc.Tools[0].InputSchema.IsRequired("app_path") {
		t.Fatalf("first tool = %+v", doc.Tools[0])
	}
}

func TestCallEnvelopeSuccess(t *testing.T) {
	exec := &recordingExecutor{result: command.Result{Succeeded: true, Stdout: "ok"}}
	s := newTestServer(t, exec)

	rr := serve(t, s, http.MethodPost, "/mcp", `{"tool_name":"modal_run","tool_input":{"app_path":"a.py","function_name":"hello","kwargs":{"name":"x"}}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	out := decodeEnvelope(t, rr)
	if out["error"] != nil {
		t.Fatalf("error = %v, want null", out["error"])
	}
	if _, ok := out["error"]; !ok {
		t.Fatal("error key must always be present")
	}
	if want := []string{"run", "a.py::hello", "--name", "x"}; !slices.Equal(exec.argv[0], want) {
		t.Fatalf("argv = %v, want %v", exec.argv[0], want)
	}
}

func TestCallEnvelopeUnknownTool(t *testing.T) {
	s := newTestServer(t, &recordingExecutor{})
	rr := serve(t, s, http.MethodPost, "/mcp", `{"tool_name":"nonexistent_tool","tool_input":{}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	out := decodeEnvelope(t, rr)
	if out["error"] != "Unknown tool: nonexistent_tool" {
		t.Fatalf("error = %v", out["error"])
	}
	if output, ok := out["tool_output"].(map[string]any); !ok || len(output) != 0 {
		t.Fatalf("tool_output = %v, want {}", out["tool_output"])
	}
}

func TestCallEnvelopeMalformedBodies(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		toolName string
	}{
		{name: "not json", body: `{{{`, toolName: "unknown"},
		{name: "bad input type", body: `{"tool_name":"modal_run","tool_input":"nope"}`, toolName: "modal_run"},
		{name: "missing name", body: `{"tool_input":{}}`, toolName: "unknown"},
		{name: "empty body", body: ``, toolName: "unknown"},
	}

	s := newTestServer(t, &recordingExecutor{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, s, http.MethodPost, "/mcp", tc.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			out := decodeEnvelope(t, rr)
			if out["tool_name"] != tc.toolName {
				t.Fatalf("tool_name = %v, want %q", out["tool_name"], tc.toolName)
			}
			if msg, _ := out["error"].(string); !strings.HasPrefix(msg, "Invalid request") {
				t.Fatalf("error = %v", out["error"])
			}
		})
	}
}

func TestDirectToolEndpoint(t *testing.T) {
	exec := &recordingExecutor{result: command.Result{Succeeded: true, Stdout: "deployed"}}
	s := newTestServer(t, exec)

	rr := serve(t, s, http.MethodPost, "/mcp/tools/modal_deploy_app", `{"app_path":"app.py"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	out := decodeEnvelope(t, rr)
	if out["status"] != "success" || out["details"] != "deployed" {
		t.Fatalf("output = %v", out)
	}
}

func TestDirectToolEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{name: "unknown tool", path: "/mcp/tools/nope", body: `{}`, status: http.StatusNotFound, code: tool.ToolErrorCodeUnknownTool},
		{name: "missing field", path: "/mcp/tools/modal_deploy_app", body: `{}`, status: http.StatusBadRequest, code: tool.ToolErrorCodeValidation},
		{name: "bad body", path: "/mcp/tools/modal_deploy_app", body: `[1]`, status: http.StatusBadRequest, code: tool.ToolErrorCodeValidation},
	}

	s := newTestServer(t, &recordingExecutor{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, s, http.MethodPost, tc.path, tc.body)
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			var body apiError
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error.Code != tc.code {
				t.Fatalf("code = %q, want %q", body.Error.Code, tc.code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(ServerConfig{Dispatcher: nil, CORSOrigin: "https://example.com"})
	rr := serve(t, s, http.MethodOptions, "/mcp", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Fatalf("Allow-Origin = %q", got)
	}
}

func TestMaxBodyLimit(t *testing.T) {
	catalog, err := modal.Catalog()
	if err != nil {
		t.Fatalf("modal.Catalog() error = %v", err)
	}
	d, err := dispatch.New(dispatch.Config{
		Catalog:  catalog,
		Handlers: modal.NewToolset(modal.Config{Executor: &recordingExecutor{}}).Handlers(),
	})
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	s := NewServer(ServerConfig{Dispatcher: d, MaxBody: 16})

	rr := serve(t, s, http.MethodPost, "/mcp", `{"tool_name":"modal_volume_list","tool_input":{}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if msg, _ := decodeEnvelope(t, rr)["error"].(string); !strings.Contains(msg, "too large") {
		t.Fatalf("error = %q, want body too large", msg)
	}
}
