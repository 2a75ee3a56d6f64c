package modal

import (
	_ "embed"

	"github.com/petal-labs/modalmcp/tool"
)

// Tool names served by this package.
const (
	ToolDeployApp    = "modal_deploy_app"
	ToolRun          = "modal_run"
	ToolVolumeList   = "modal_volume_list"
	ToolVolumeLs     = "modal_volume_ls"
	ToolVolumeCopy   = "modal_volume_cp"
	ToolVolumeRemove = "modal_volume_rm"
	ToolVolumePut    = "modal_volume_put"
	ToolVolumeGet    = "modal_volume_get"
)

//go:embed catalog.yaml
var catalogYAML []byte

// CatalogYAML returns a copy of the embedded catalog document.
func CatalogYAML() []byte {
	return append([]byte(nil), catalogYAML...)
}

// Catalog loads the embedded catalog.
func Catalog() (*tool.Catalog, error) {
	return tool.LoadCatalog(catalogYAML)
}
