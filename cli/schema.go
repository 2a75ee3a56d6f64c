package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewSchemaCmd creates the "schema" subcommand.
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}
	cmd.Flags().String("catalog", "", "Catalog file to print instead of the built-in one")
	return cmd
}

func runSchema(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("catalog")
	catalog, err := loadCatalog(path)
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(catalog.Document()); err != nil {
		return exitError(exitRuntime, "encoding catalog: %v", err)
	}
	return nil
}
