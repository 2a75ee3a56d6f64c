package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the modalmcp command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "modalmcp",
		Short: "Expose the Modal CLI as schema-described tools",
		Long:  "modalmcp serves Modal deploy, run and volume operations as tools over HTTP and calls them from the command line.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("verbose", false, "Enable verbose/debug logging")
	root.PersistentFlags().String("log-format", "", "Log format: text | json")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("modalmcp version %s\n", version))

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewSchemaCmd())
	root.AddCommand(NewToolsCmd())
	root.AddCommand(NewJournalCmd())
	return root
}

// newLogger builds the process logger from the global flags, falling back to
// the configured format and level.
func newLogger(cmd *cobra.Command, format, level string) *slog.Logger {
	if flagFormat, _ := cmd.Flags().GetString("log-format"); strings.TrimSpace(flagFormat) != "" {
		format = flagFormat
	}

	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), opts))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
}
