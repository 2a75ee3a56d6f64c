package modal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/petal-labs/modalmcp/command"
	"github.com/petal-labs/modalmcp/dispatch"
	"github.com/petal-labs/modalmcp/tool"
)

// Executor runs a command spec. *command.Runner satisfies it.
type Executor interface {
	Execute(ctx context.Context, spec command.Spec) command.Result
}

// Config configures a Toolset.
type Config struct {
	// Executor defaults to a command.Runner for the "modal" binary.
	Executor Executor
	// DeployWithUV runs deploys as `uv run --directory=<app dir> modal deploy <file>`.
	DeployWithUV bool
	Logger       *slog.Logger
}

// Toolset implements the Modal tools on top of an Executor.
type Toolset struct {
	executor     Executor
	deployWithUV bool
	logger       *slog.Logger
}

// NewToolset applies defaults to cfg.
func NewToolset(cfg Config) *Toolset {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	executor := cfg.Executor
	if executor == nil {
		executor = command.NewRunner(command.RunnerConfig{Logger: logger})
	}
	return &Toolset{
		executor:     executor,
		deployWithUV: cfg.DeployWithUV,
		logger:       logger,
	}
}

// Handlers returns one dispatch handler per catalog tool.
func (t *Toolset) Handlers() map[string]dispatch.Handler {
	return map[string]dispatch.Handler{
		ToolDeployApp:    dispatch.Typed(t.DeployApp),
		ToolRun:          dispatch.Typed(t.Run),
		ToolVolumeList:   dispatch.Typed(t.VolumeList),
		ToolVolumeLs:     dispatch.Typed(t.VolumeContents),
		ToolVolumeCopy:   dispatch.Typed(t.VolumeCopy),
		ToolVolumeRemove: dispatch.Typed(t.VolumeRemove),
		ToolVolumePut:    dispatch.Typed(t.VolumePut),
		ToolVolumeGet:    dispatch.Typed(t.VolumeGet),
	}
}

// DeployApp deploys an app file.
func (t *Toolset) DeployApp(ctx context.Context, in DeployInput) (map[string]any, error) {
	res := t.executor.Execute(ctx, DeploySpec(in, t.deployWithUV))
	norm, err := command.Normalize(res, command.Contract{Kind: command.OutputText, FailurePrefix: "Failed to deploy app"})
	if err != nil {
		out := failureOutput(err, norm)
		out["status"] = "error"
		out["message"] = "Failed to deploy app"
		out["details"] = res.Stderr
		out["command"] = res.CommandLine()
		return out, nil
	}
	return map[string]any{
		"success": true,
		"status":  "success",
		"message": "App deployed successfully",
		"details": norm.Stdout,
		"command": res.CommandLine(),
	}, nil
}

// Run invokes a function, either to completion or as a background launch.
func (t *Toolset) Run(ctx context.Context, in RunInput) (map[string]any, error) {
	res := t.executor.Execute(ctx, command.Spec{Argv: RunArgv(in), Background: in.Background})
	norm, err := command.Normalize(res, command.Contract{Kind: command.OutputText, FailurePrefix: "Function execution failed"})
	if err != nil {
		out := failureOutput(err, norm)
		out["status"] = "error"
		out["message"] = "Function execution failed"
		out["details"] = res.Stderr
		out["command"] = res.CommandLine()
		return out, nil
	}
	out := map[string]any{
		"success": true,
		"status":  "success",
		"message": "Function executed successfully",
		"details": norm.Stdout,
		"command": res.CommandLine(),
	}
	if res.Background {
		out["message"] = "Process started successfully"
		out["pid"] = res.PID
		t.logger.Info("background run launched", "pid", res.PID, "function", in.FunctionName)
	}
	return out, nil
}

// VolumeList lists volumes.
func (t *Toolset) VolumeList(ctx context.Context, _ VolumeListInput) (map[string]any, error) {
	res := t.executor.Execute(ctx, command.Spec{Argv: VolumeListArgv()})
	norm, err := command.Normalize(res, command.Contract{Kind: command.OutputJSON, FailurePrefix: "Failed to list volumes"})
	if err != nil {
		return failureOutput(err, norm), nil
	}
	return map[string]any{"success": true, "volumes": norm.Data}, nil
}

// VolumeContents lists a directory inside a volume.
func (t *Toolset) VolumeContents(ctx context.Context, in VolumeContentsInput) (map[string]any, error) {
	res := t.executor.Execute(ctx, command.Spec{Argv: VolumeContentsArgv(in)})
	norm, err := command.Normalize(res, command.Contract{Kind: command.OutputJSON, FailurePrefix: "Failed to list volume contents"})
	if err != nil {
		return failureOutput(err, norm), nil
	}
	return map[string]any{"success": true, "contents": norm.Data}, nil
}

// VolumeCopy copies files within a volume.
func (t *Toolset) VolumeCopy(ctx context.Context, in VolumeCopyInput) (map[string]any, error) {
	argv, err := VolumeCopyArgv(in)
	if err != nil {
		return map[string]any{
			"success":    false,
			"error":      err.Error(),
			"error_code": tool.ToolErrorCodeValidation,
		}, nil
	}
	return t.mutate(ctx, argv,
		"Failed to copy files",
		fmt.Sprintf("Successfully copied files in volume %s", in.VolumeName),
	), nil
}

// VolumeRemove deletes a path from a volume.
func (t *Toolset) VolumeRemove(ctx context.Context, in VolumeRemoveInput) (map[string]any, error) {
	return t.mutate(ctx, VolumeRemoveArgv(in),
		"Failed to delete "+in.RemotePath,
		fmt.Sprintf("Successfully deleted %s from volume %s", in.RemotePath, in.VolumeName),
	), nil
}

// VolumePut uploads a local path into a volume.
func (t *Toolset) VolumePut(ctx context.Context, in VolumePutInput) (map[string]any, error) {
	remote := orDefault(in.RemotePath, defaultVolumePath)
	return t.mutate(ctx, VolumePutArgv(in),
		"Failed to upload "+in.LocalPath,
		fmt.Sprintf("Successfully uploaded %s to %s:%s", in.LocalPath, in.VolumeName, remote),
	), nil
}

// VolumeGet downloads a volume path.
func (t *Toolset) VolumeGet(ctx context.Context, in VolumeGetInput) (map[string]any, error) {
	return t.mutate(ctx, VolumeGetArgv(in),
		"Failed to download "+in.RemotePath,
		fmt.Sprintf("Successfully downloaded %s from volume %s", in.RemotePath, in.VolumeName),
	), nil
}

func (t *Toolset) mutate(ctx context.Context, argv []string, failurePrefix, successMessage string) map[string]any {
	res := t.executor.Execute(ctx, command.Spec{Argv: argv})
	norm, err := command.Normalize(res, command.Contract{Kind: command.OutputText, FailurePrefix: failurePrefix})
	if err != nil {
		out := failureOutput(err, norm)
		out["command"] = res.CommandLine()
		return out
	}
	out := map[string]any{
		"success": true,
		"message": successMessage,
		"command": res.CommandLine(),
	}
	attachStreams(out, norm.Stdout, norm.Stderr)
	return out
}

func failureOutput(err error, norm command.Normalized) map[string]any {
	out := map[string]any{
		"success":    false,
		"error":      tool.ErrorMessage(err),
		"error_code": tool.ErrorCodeOrDefault(err, tool.ToolErrorCodeProcessFailed),
	}
	attachStreams(out, norm.Stdout, norm.Stderr)
	return out
}

func attachStreams(out map[string]any, stdout, stderr string) {
	if stdout != "" {
		out["stdout"] = stdout
	}
	if stderr != "" {
		out["stderr"] = stderr
	}
}
