package modal

import "github.com/petal-labs/modalmcp/tool"

// DeployInput is the input of modal_deploy_app.
type DeployInput struct {
	AppPath string `json:"app_path"`
	AppName string `json:"app_name,omitempty"`
}

// RunInput is the input of modal_run. Kwargs keeps the caller's key order.
type RunInput struct {
	AppPath      string     `json:"app_path"`
	FunctionName string     `json:"function_name"`
	Kwargs       tool.Input `json:"kwargs"`
	Background   bool       `json:"background,omitempty"`
}

// VolumeListInput is the (empty) input of modal_volume_list.
type VolumeListInput struct{}

// VolumeContentsInput is the input of modal_volume_ls.
type VolumeContentsInput struct {
	VolumeName string `json:"volume_name"`
	Path       string `json:"path,omitempty"`
}

// VolumeCopyInput is the input of modal_volume_cp. The last path is the destination.
type VolumeCopyInput struct {
	VolumeName string   `json:"volume_name"`
	Paths      []string `json:"paths"`
}

// VolumeRemoveInput is the input of modal_volume_rm.
type VolumeRemoveInput struct {
	VolumeName string `json:"volume_name"`
	RemotePath string `json:"remote_path"`
	Recursive  bool   `json:"recursive,omitempty"`
}

// VolumePutInput is the input of modal_volume_put.
type VolumePutInput struct {
	VolumeName string `json:"volume_name"`
	LocalPath  string `json:"local_path"`
	RemotePath string `json:"remote_path,omitempty"`
	Force      bool   `json:"force,omitempty"`
}

// VolumeGetInput is the input of modal_volume_get.
type VolumeGetInput struct {
	VolumeName       string `json:"volume_name"`
	RemotePath       string `json:"remote_path"`
	LocalDestination string `json:"local_destination,omitempty"`
	Force            bool   `json:"force,omitempty"`
}
