package modal

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/petal-labs/modalmcp/command"
	"github.com/petal-labs/modalmcp/dispatch"
	"github.com/petal-labs/modalmcp/tool"
)

type fakeExecutor struct {
	mu     sync.Mutex
	specs  []command.Spec
	result command.Result
}

func (f *fakeExecutor) Execute(_ context.Context, spec command.Spec) command.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	res := f.result
	res.Argv = append([]string{"modal"}, spec.Argv...)
	res.Background = spec.Background
	return res
}

func (f *fakeExecutor) calls() []command.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.specs)
}

func newModalDispatcher(t *testing.T, exec *fakeExecutor) *dispatch.Dispatcher {
	t.Helper()
	catalog, err := Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	d, err := dispatch.New(dispatch.Config{
		Catalog:  catalog,
		Handlers: NewToolset(Config{Executor: exec}).Handlers(),
	})
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	return d
}

func TestCatalogMatchesHandlers(t *testing.T) {
	catalog, err := Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	want := []string{
		ToolDeployApp, ToolRun, ToolVolumeList, ToolVolumeLs,
		ToolVolumeCopy, ToolVolumeRemove, ToolVolumePut, ToolVolumeGet,
	}
	if !slices.Equal(catalog.Names(), want) {
		t.Fatalf("Names() = %v, want %v", catalog.Names(), want)
	}
	doc := catalog.Document()
	if doc.SchemaVersion != tool.SchemaVersionV1 || doc.Name != "modal-tools" {
		t.Fatalf("document header = %q %q", doc.SchemaVersion, doc.Name)
	}
}

func TestRunThroughDispatcher(t *testing.T) {
	exec := &fakeExecutor{result: command.Result{Succeeded: true, Stdout: "hello x\n"}}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.CallRequest{
		ToolName:  ToolRun,
		ToolInput: mustInput(t, `{"app_path":"a.py","function_name":"hello","kwargs":{"name":"x","n":2}}`),
	})
	if resp.Error != nil {
		t.Fatalf("Error = %q", *resp.Error)
	}
	calls := exec.calls()
	if len(calls) != 1 {
		t.Fatalf("executions = %d, want 1", len(calls))
	}
	if want := []string{"run", "a.py::hello", "--name", "x", "--n", "2"}; !slices.Equal(calls[0].Argv, want) {
		t.Fatalf("argv = %v, want %v", calls[0].Argv, want)
	}
	out := resp.ToolOutput
	if out["status"] != "success" || out["message"] != "Function executed successfully" || out["details"] != "hello x\n" {
		t.Fatalf("ToolOutput = %v", out)
	}
}

func TestRunBackground(t *testing.T) {
	exec := &fakeExecutor{result: command.Result{Succeeded: true, PID: 4242}}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolRun, map[string]any{
		"app_path":      "a.py",
		"function_name": "train",
		"background":    true,
	}))
	if resp.Error != nil {
		t.Fatalf("Error = %q", *resp.Error)
	}
	if !exec.calls()[0].Background {
		t.Fatal("spec.Background = false, want true")
	}
	if resp.ToolOutput["pid"] != 4242 || resp.ToolOutput["message"] != "Process started successfully" {
		t.Fatalf("ToolOutput = %v", resp.ToolOutput)
	}
}

func TestRunBackgroundEndedPrematurely(t *testing.T) {
	exec := &fakeExecutor{result: command.Result{ExitCode: 1, Err: command.ErrEndedPrematurely, Stderr: "ImportError"}}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolRun, map[string]any{
		"app_path":      "a.py",
		"function_name": "train",
		"background":    true,
	}))
	if resp.Error != nil {
		t.Fatalf("Error = %q, want failure as data", *resp.Error)
	}
	out := resp.ToolOutput
	if out["success"] != false || out["status"] != "error" || out["details"] != "ImportError" {
		t.Fatalf("ToolOutput = %v", out)
	}
	if out["error"] != "Function execution failed: process ended prematurely" {
		t.Fatalf("error = %v", out["error"])
	}
}

func TestDeployFailure(t *testing.T) {
	exec := &fakeExecutor{result: command.Result{ExitCode: 1, Err: errors.New("exit 1"), Stderr: "auth required"}}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolDeployApp, map[string]any{"app_path": "app.py", "app_name": "prod"}))
	if resp.Error != nil {
		t.Fatalf("Error = %q", *resp.Error)
	}
	if want := []string{"deploy", "app.py", "--name", "prod"}; !slices.Equal(exec.calls()[0].Argv, want) {
		t.Fatalf("argv = %v, want %v", exec.calls()[0].Argv, want)
	}
	out := resp.ToolOutput
	if out["status"] != "error" || out["message"] != "Failed to deploy app" || out["details"] != "auth required" {
		t.Fatalf("ToolOutput = %v", out)
	}
	if out["error_code"] != tool.ToolErrorCodeProcessFailed {
		t.Fatalf("error_code = %v", out["error_code"])
	}
}

func TestDeployMissingAppPath(t *testing.T) {
	exec := &fakeExecutor{}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolDeployApp, map[string]any{"app_name": "x"}))
	if resp.Error == nil || !strings.Contains(*resp.Error, "app_path") {
		t.Fatalf("Error = %v, want app_path validation error", resp.Error)
	}
	if len(exec.calls()) != 0 {
		t.Fatal("validation failure must not spawn a command")
	}
}

func TestVolumeList(t *testing.T) {
	exec := &fakeExecutor{result: command.Result{Succeeded: true, Stdout: `[{"Name":"data","Created at":"2024-01-01"}]`}}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolVolumeList, nil))
	if resp.Error != nil {
		t.Fatalf("Error = %q", *resp.Error)
	}
	volumes, ok := resp.ToolOutput["volumes"].([]any)
	if !ok || len(volumes) != 1 || resp.ToolOutput["success"] != true {
		t.Fatalf("ToolOutput = %v", resp.ToolOutput)
	}
}

func TestVolumeContentsParseFailure(t *testing.T) {
	exec := &fakeExecutor{result: command.Result{Succeeded: true, Stdout: "not json"}}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolVolumeLs, map[string]any{"volume_name": "data"}))
	if resp.Error != nil {
		t.Fatalf("Error = %q", *resp.Error)
	}
	if want := []string{"volume", "ls", "--json", "data", "/"}; !slices.Equal(exec.calls()[0].Argv, want) {
		t.Fatalf("argv = %v, want %v", exec.calls()[0].Argv, want)
	}
	out := resp.ToolOutput
	if out["success"] != false || out["error_code"] != tool.ToolErrorCodeOutputParse || out["stdout"] != "not json" {
		t.Fatalf("ToolOutput = %v", out)
	}
	if msg, _ := out["error"].(string); !strings.HasPrefix(msg, "Failed to parse JSON output: ") {
		t.Fatalf("error = %q", msg)
	}
}

func TestVolumeContentsProcessFailure(t *testing.T) {
	exec := &fakeExecutor{result: command.Result{ExitCode: 1, Err: errors.New("exit 1"), Stderr: "no such volume"}}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolVolumeLs, map[string]any{"volume_name": "ghost", "path": "/x"}))
	out := resp.ToolOutput
	if out["error"] != "Failed to list volume contents: no such volume" || out["stderr"] != "no such volume" {
		t.Fatalf("ToolOutput = %v", out)
	}
}

func TestVolumeCopyRequiresTwoPaths(t *testing.T) {
	exec := &fakeExecutor{}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolVolumeCopy, map[string]any{
		"volume_name": "data",
		"paths":       []any{"only.txt"},
	}))
	if resp.Error != nil {
		t.Fatalf("Error = %q", *resp.Error)
	}
	if resp.ToolOutput["error"] != "At least one source and one destination path are required" {
		t.Fatalf("ToolOutput = %v", resp.ToolOutput)
	}
	if len(exec.calls()) != 0 {
		t.Fatal("copy with one path must not spawn a command")
	}
}

func TestVolumeMutations(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		input   map[string]any
		argv    []string
		message string
	}{
		{
			name:    "copy",
			tool:    ToolVolumeCopy,
			input:   map[string]any{"volume_name": "data", "paths": []any{"a", "b"}},
			argv:    []string{"volume", "cp", "data", "a", "b"},
			message: "Successfully copied files in volume data",
		},
		{
			name:    "remove",
			tool:    ToolVolumeRemove,
			input:   map[string]any{"volume_name": "data", "remote_path": "/tmp", "recursive": "true"},
			argv:    []string{"volume", "rm", "-r", "data", "/tmp"},
			message: "Successfully deleted /tmp from volume data",
		},
		{
			name:    "put",
			tool:    ToolVolumePut,
			input:   map[string]any{"volume_name": "data", "local_path": "f.txt", "force": true},
			argv:    []string{"volume", "put", "-f", "data", "f.txt", "/"},
			message: "Successfully uploaded f.txt to data:/",
		},
		{
			name:    "get",
			tool:    ToolVolumeGet,
			input:   map[string]any{"volume_name": "data", "remote_path": "/f.txt", "force": true},
			argv:    []string{"volume", "get", "--force", "data", "/f.txt", "."},
			message: "Successfully downloaded /f.txt from volume data",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &fakeExecutor{result: command.Result{Succeeded: true, Stdout: "done\n"}}
			d := newModalDispatcher(t, exec)

			resp := d.Dispatch(context.Background(), tool.NewCallRequest(tc.tool, tc.input))
			if resp.Error != nil {
				t.Fatalf("Error = %q", *resp.Error)
			}
			if got := exec.calls()[0].Argv; !slices.Equal(got, tc.argv) {
				t.Fatalf("argv = %v, want %v", got, tc.argv)
			}
			out := resp.ToolOutput
			if out["success"] != true || out["message"] != tc.message || out["stdout"] != "done\n" {
				t.Fatalf("ToolOutput = %v", out)
			}
			if cmd, _ := out["command"].(string); !strings.HasPrefix(cmd, "modal volume") {
				t.Fatalf("command = %q", cmd)
			}
		})
	}
}

func TestVolumeRemoveFailure(t *testing.T) {
	exec := &fakeExecutor{result: command.Result{ExitCode: 2, Err: errors.New("exit 2"), Stderr: "not found"}}
	d := newModalDispatcher(t, exec)

	resp := d.Dispatch(context.Background(), tool.NewCallRequest(ToolVolumeRemove, map[string]any{"volume_name": "data", "remote_path": "/gone"}))
	out := resp.ToolOutput
	if out["success"] != false || out["error"] != "Failed to delete /gone: not found" {
		t.Fatalf("ToolOutput = %v", out)
	}
	if _, ok := out["message"]; ok {
		t.Fatalf("failure output should not carry message: %v", out)
	}
}

func mustInput(t *testing.T, raw string) tool.Input {
	t.Helper()
	var in tool.Input
	if err := in.UnmarshalJSON([]byte(raw)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	return in
}
