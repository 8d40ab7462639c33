package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the status line colors.
type Theme struct {
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Dim     lipgloss.Color // info and verbose text
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Success: lipgloss.Color("#00ff9f"),
	Error:   lipgloss.Color("#ff5f5f"),
	Warning: lipgloss.Color("#ffaf00"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Success: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Warning: lipgloss.NewStyle().Foreground(t.Warning),
		Info:    lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Printer writes styled status lines. Success and info lines go to Out,
// errors, warnings and verbose lines to Err.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Styles Styles
}

// NewPrinter creates a Printer with the default theme.
func NewPrinter(out, err io.Writer) *Printer {
	return &Printer{Out: out, Err: err, Styles: NewStyles(DefaultTheme)}
}

// Success prints a success message with checkmark
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Success.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.Err, p.Styles.Error.Render("Error:")+" "+fmt.Sprintf(format, args...))
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Out, p.Styles.Info.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Err, p.Styles.Warning.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Verbose prints verbose output when verbose is set
func (p *Printer) Verbose(verbose bool, format string, args ...any) {
	if verbose {
		fmt.Fprintln(p.Err, p.Styles.Info.Render("[verbose] "+fmt.Sprintf(format, args...)))
	}
}

// PrintError prints an error message to stderr. It is used for errors that
// happen before a command has its own streams.
func PrintError(format string, args ...any) {
	NewPrinter(os.Stdout, os.Stderr).Error(format, args...)
}
