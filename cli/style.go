package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	clrBrand = lipgloss.Color("42") // modal green
	clrGreen = lipgloss.Color("114")
	clrRed   = lipgloss.Color("203")
	clrDim   = lipgloss.Color("245")
)

// styles renders colored output only when writing to a terminal.
type styles struct {
	enabled bool

	Header  lipgloss.Style
	Name    lipgloss.Style
	Dim     lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(w io.Writer, noColor bool) styles {
	enabled := false
	if !noColor {
		if f, ok := w.(*os.File); ok {
			enabled = term.IsTerminal(int(f.Fd()))
		}
	}

	s := styles{enabled: enabled}
	if !enabled {
		noop := lipgloss.NewStyle()
		s.Header = noop
		s.Name = noop
		s.Dim = noop
		s.Success = noop
		s.Error = noop
		return s
	}

	s.Header = lipgloss.NewStyle().Bold(true).Foreground(clrBrand)
	s.Name = lipgloss.NewStyle().Bold(true)
	s.Dim = lipgloss.NewStyle().Foreground(clrDim)
	s.Success = lipgloss.NewStyle().Foreground(clrGreen)
	s.Error = lipgloss.NewStyle().Foreground(clrRed).Bold(true)
	return s
}

// kv formats "  key:  value".
func (s styles) kv(key, value string) string {
	label := fmt.Sprintf("%-14s", key+":")
	if !s.enabled {
		return "  " + label + " " + value
	}
	return "  " + s.Dim.Render(label) + " " + value
}

func (s styles) status(ok bool) string {
	if ok {
		return s.Success.Render("ok")
	}
	return s.Error.Render("failed")
}

func stylesFor(cmd *cobra.Command) styles {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return newStyles(cmd.OutOrStdout(), noColor)
}
