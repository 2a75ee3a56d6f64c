package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/modalmcp/journal"
)

// NewJournalCmd creates the "journal" command group.
func NewJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the call journal",
	}
	cmd.PersistentFlags().String("path", "", "Journal database (default: ~/.modalmcp/journal.db)")
	cmd.AddCommand(newJournalListCmd())
	cmd.AddCommand(newJournalPruneCmd())
	return cmd
}

func newJournalListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent tool calls",
		Args:  cobra.NoArgs,
		RunE:  runJournalList,
	}
	cmd.Flags().Int("limit", 20, "Maximum number of entries")
	cmd.Flags().Bool("commands", false, "Show command executions instead of tool calls")
	cmd.Flags().Bool("json", false, "Print entries as JSON")
	return cmd
}

func newJournalPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete entries older than the retention window",
		Args:  cobra.NoArgs,
		RunE:  runJournalPrune,
	}
	cmd.Flags().Duration("older-than", journal.DefaultRetention, "Retention window")
	return cmd
}

func openJournal(cmd *cobra.Command) (*journal.Store, error) {
	path, _ := cmd.Flags().GetString("path")
	if strings.TrimSpace(path) == "" {
		defaultPath, err := journal.DefaultPath()
		if err != nil {
			return nil, exitError(exitConfig, "%v", err)
		}
		path = defaultPath
	}
	store, err := journal.Open(journal.Config{DSN: path, Logger: newLogger(cmd, "", "warn")})
	if err != nil {
		return nil, exitError(exitConfig, "%v", err)
	}
	return store, nil
}

func runJournalList(cmd *cobra.Command, _ []string) error {
	store, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	limit, _ := cmd.Flags().GetInt("limit")
	commands, _ := cmd.Flags().GetBool("commands")
	asJSON, _ := cmd.Flags().GetBool("json")

	var entries any
	if commands {
		entries, err = store.RecentCommands(cmd.Context(), limit)
	} else {
		entries, err = store.RecentCalls(cmd.Context(), limit)
	}
	if err != nil {
		return exitError(exitRuntime, "%v", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	st := stylesFor(cmd)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	switch list := entries.(type) {
	case []journal.CallEntry:
		fmt.Fprintln(tw, st.Header.Render("TIME")+"\t"+st.Header.Render("TOOL")+"\t"+st.Header.Render("STATUS")+"\t"+st.Header.Render("DURATION")+"\t"+st.Header.Render("ERROR"))
		for _, e := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.RecordedAt.Local().Format(time.DateTime),
				e.ToolName,
				st.status(e.Success),
				(time.Duration(e.DurationMS) * time.Millisecond).String(),
				firstLine(e.Error),
			)
		}
	case []journal.CommandEntry:
		fmt.Fprintln(tw, st.Header.Render("TIME")+"\t"+st.Header.Render("COMMAND")+"\t"+st.Header.Render("STATUS")+"\t"+st.Header.Render("EXIT")+"\t"+st.Header.Render("PID"))
		for _, e := range list {
			pid := "-"
			if e.PID > 0 {
				pid = fmt.Sprintf("%d", e.PID)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				e.RecordedAt.Local().Format(time.DateTime),
				strings.Join(e.Argv, " "),
				st.status(e.Succeeded),
				e.ExitCode,
				pid,
			)
		}
	}
	return tw.Flush()
}

func runJournalPrune(cmd *cobra.Command, _ []string) error {
	store, err := openJournal(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan < 0 {
		return exitError(exitValidation, "--older-than must not be negative")
	}
	removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
	if err != nil {
		return exitError(exitRuntime, "%v", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d journal entr%s\n", removed, pluralY(removed))
	return nil
}

func pluralY(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
