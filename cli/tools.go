package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/modalmcp/client"
	"github.com/petal-labs/modalmcp/tool"
)

const defaultServerURL = "http://127.0.0.1:8000"

// NewToolsCmd creates the "tools" command group.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List, describe and call tools on a running server",
	}
	cmd.PersistentFlags().String("server", "", "Server base URL (default: $MODALMCP_SERVER or "+defaultServerURL+")")

	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsDescribeCmd())
	cmd.AddCommand(newToolsCallCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tools advertised by the server",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
}

func newToolsDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show a tool's description and input schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsDescribe,
	}
}

func newToolsCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: "Call a tool and print its output",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsCall,
	}
	cmd.Flags().String("input", "{}", "Tool input as a JSON object, or @file to read it from a file")
	return cmd
}

func resolveServerURL(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("server"); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(os.Getenv("MODALMCP_SERVER")); v != "" {
		return v
	}
	return defaultServerURL
}

func connect(cmd *cobra.Command) (*client.Client, error) {
	logger := newLogger(cmd, "", "warn")
	c, err := client.New(cmd.Context(), resolveServerURL(cmd), client.WithLogger(logger))
	if err != nil {
		return nil, exitError(exitTransport, "%v", err)
	}
	return c, nil
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	c, err := connect(cmd)
	if err != nil {
		return err
	}
	st := stylesFor(cmd)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, st.Header.Render("NAME")+"\t"+st.Header.Render("DESCRIPTION"))
	for _, binding := range c.Tools() {
		fmt.Fprintf(tw, "%s\t%s\n", st.Name.Render(binding.Name), firstLine(binding.Description))
	}
	return tw.Flush()
}

func runToolsDescribe(cmd *cobra.Command, args []string) error {
	c, err := connect(cmd)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(args[0])
	binding, ok := c.Binding(name)
	if !ok {
		return exitError(exitValidation, "unknown tool %q", name)
	}
	st := stylesFor(cmd)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, st.Header.Render(binding.Name))
	fmt.Fprintln(out, c.Describe(name))
	fmt.Fprintln(out)

	props := binding.InputSchema.Properties
	if len(props) == 0 {
		fmt.Fprintln(out, st.Dim.Render("No inputs."))
		return nil
	}
	fmt.Fprintln(out, st.Name.Render("Inputs:"))
	for _, field := range slices.Sorted(maps.Keys(props)) {
		schema := props[field]
		label := schema.Type
		if binding.InputSchema.IsRequired(field) {
			label += ", required"
		}
		if schema.Default != nil {
			label += fmt.Sprintf(", default %v", schema.Default)
		}
		fmt.Fprintln(out, st.kv(field, label))
		if desc := strings.TrimSpace(schema.Description); desc != "" {
			fmt.Fprintln(out, "    "+st.Dim.Render(desc))
		}
	}
	return nil
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("input")
	input, err := parseToolInput(raw)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}

	c, err := connect(cmd)
	if err != nil {
		return err
	}

	output, err := c.CallInput(cmd.Context(), strings.TrimSpace(args[0]), input)
	if err != nil {
		var transportErr *client.TransportError
		switch {
		case errors.Is(err, client.ErrUnboundTool):
			return exitError(exitValidation, "%v", err)
		case errors.As(err, &transportErr):
			return exitError(exitTransport, "%v", err)
		default:
			return exitError(exitRuntime, "%v", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		return exitError(exitRuntime, "encoding output: %v", err)
	}
	if success, ok := output["success"].(bool); ok && !success {
		return exitError(exitRuntime, "tool reported failure")
	}
	return nil
}

func parseToolInput(raw string) (tool.Input, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return tool.Input{}, fmt.Errorf("reading input file: %w", err)
		}
		raw = string(data)
	}
	if raw == "" {
		raw = "{}"
	}
	var input tool.Input
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return tool.Input{}, fmt.Errorf("invalid --input: %w", err)
	}
	return input, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
