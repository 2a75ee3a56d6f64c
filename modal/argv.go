package modal

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/petal-labs/modalmcp/command"
)

const (
	defaultVolumePath       = "/"
	defaultLocalDestination = "."
)

// ErrCopyPaths is returned when a copy names fewer than two paths.
var ErrCopyPaths = errors.New("At least one source and one destination path are required")

// DeployArgv builds `deploy <app_path> [--name <app_name>]`.
func DeployArgv(in DeployInput) []string {
	argv := []string{"deploy", in.AppPath}
	if in.AppName != "" {
		argv = append(argv, "--name", in.AppName)
	}
	return argv
}

// DeploySpec builds the deploy command. With uv enabled the CLI runs inside
// the app directory's uv environment and receives the file's base name.
func DeploySpec(in DeployInput, withUV bool) command.Spec {
	if !withUV {
		return command.Spec{Argv: DeployArgv(in)}
	}
	local := in
	local.AppPath = filepath.Base(in.AppPath)
	return command.Spec{
		Argv:     DeployArgv(local),
		Launcher: []string{"uv", "run", "--directory=" + filepath.Dir(in.AppPath)},
	}
}

// RunArgv builds `run <app_path>::<function_name> [--<key> <value>]...` with
// kwargs in input order.
func RunArgv(in RunInput) []string {
	argv := []string{"run", in.AppPath + "::" + in.FunctionName}
	for _, key := range in.Kwargs.Keys() {
		value, _ := in.Kwargs.Get(key)
		argv = append(argv, "--"+key, kwargValue(value))
	}
	return argv
}

func kwargValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

// VolumeListArgv builds `volume list --json`.
func VolumeListArgv() []string {
	return []string{"volume", "list", "--json"}
}

// VolumeContentsArgv builds `volume ls --json <volume> <path>`.
func VolumeContentsArgv(in VolumeContentsInput) []string {
	return []string{"volume", "ls", "--json", in.VolumeName, orDefault(in.Path, defaultVolumePath)}
}

// VolumeCopyArgv builds `volume cp <volume> <paths...>`. It fails with
// ErrCopyPaths when fewer than two paths are given.
func VolumeCopyArgv(in VolumeCopyInput) ([]string, error) {
	if len(in.Paths) < 2 {
		return nil, ErrCopyPaths
	}
	argv := []string{"volume", "cp", in.VolumeName}
	return append(argv, in.Paths...), nil
}

// VolumeRemoveArgv builds `volume rm [-r] <volume> <path>`.
func VolumeRemoveArgv(in VolumeRemoveInput) []string {
	argv := []string{"volume", "rm"}
	if in.Recursive {
		argv = append(argv, "-r")
	}
	return append(argv, in.VolumeName, in.RemotePath)
}

// VolumePutArgv builds `volume put [-f] <volume> <local> <remote>`.
func VolumePutArgv(in VolumePutInput) []string {
	argv := []string{"volume", "put"}
	if in.Force {
		argv = append(argv, "-f")
	}
	return append(argv, in.VolumeName, in.LocalPath, orDefault(in.RemotePath, defaultVolumePath))
}

// VolumeGetArgv builds `volume get [--force] <volume> <remote> <local>`.
func VolumeGetArgv(in VolumeGetInput) []string {
	argv := []string{"volume", "get"}
	if in.Force {
		argv = append(argv, "--force")
	}
	return append(argv, in.VolumeName, in.RemotePath, orDefault(in.LocalDestination, defaultLocalDestination))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
