package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/petal-labs/modalmcp/tool"
)

// OutputKind selects how stdout is interpreted.
type OutputKind int

const (
	// OutputText passes stdout through verbatim.
	OutputText OutputKind = iota
	// OutputJSON decodes stdout as a JSON document.
	OutputJSON
)

// Contract describes the expected output of a command.
type Contract struct {
	Kind OutputKind
	// FailurePrefix starts the message of PROCESS_FAILED errors.
	FailurePrefix string
}

// Normalized is a decoded command result.
type Normalized struct {
	// Data is the stdout string for OutputText and the decoded document for OutputJSON.
	Data   any
	Stdout string
	Stderr string
}

// Normalize applies contract to res. The returned error is always a
// *tool.ToolError coded PROCESS_FAILED or OUTPUT_PARSE_FAILED; Stdout and
// Stderr are populated either way.
func Normalize(res Result, contract Contract) (Normalized, error) {
	out := Normalized{Stdout: res.Stdout, Stderr: res.Stderr}

	if !res.Succeeded {
		reason := strings.TrimSpace(res.Stderr)
		if errors.Is(res.Err, ErrEndedPrematurely) || (reason == "" && res.Err != nil) {
			reason = res.Err.Error()
		}
		if reason == "" {
			reason = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		prefix := strings.TrimSpace(contract.FailurePrefix)
		if prefix == "" {
			prefix = "Command failed"
		}
		return out, tool.WithDetails(
			tool.NewToolError(tool.ToolErrorCodeProcessFailed, prefix+": "+reason, false, res.Err),
			map[string]any{
				"stdout":    res.Stdout,
				"stderr":    res.Stderr,
				"command":   res.CommandLine(),
				"exit_code": res.ExitCode,
			},
		)
	}

	switch contract.Kind {
	case OutputJSON:
		var data any
		if err := json.Unmarshal([]byte(res.Stdout), &data); err != nil {
			return out, tool.WithDetails(
				tool.NewToolError(tool.ToolErrorCodeOutputParse, "Failed to parse JSON output: "+err.Error(), false, err),
				map[string]any{
					"stdout": res.Stdout,
					"stderr": res.Stderr,
				},
			)
		}
		out.Data = data
	default:
		out.Data = res.Stdout
	}
	return out, nil
}
