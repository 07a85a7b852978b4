package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Logo printed by the CLI banner
const Logo = `
 ╔════════════════════════════════════╗
 ║  threadsdl · media downloader      ║
 ╚════════════════════════════════════╝
`

var (
	cyan    = lipgloss.Color("#00FFFF")
	magenta = lipgloss.Color("#FF00FF")
	green   = lipgloss.Color("#39FF14")
	yellow  = lipgloss.Color("#FFFF00")
	red     = lipgloss.Color("#FF3131")
	dim     = lipgloss.Color("#B0B0B0")

	termLogoStyle      = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	termLabelStyle     = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	termValueStyle     = lipgloss.NewStyle().Foreground(yellow)
	termSuccessStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	termErrorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	termWarningStyle   = lipgloss.NewStyle().Foreground(yellow)
	termHighlightStyle = lipgloss.NewStyle().Foreground(magenta)
	termDimStyle       = lipgloss.NewStyle().Foreground(dim)
)

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Printer writes styled lines. Styling is dropped when the output is not a
// terminal.
type Printer struct {
	out   io.Writer
	color bool
}

// NewPrinter creates a printer for w
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: w, color: IsTerminal(w)}
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Writer returns the underlying output
func (p *Printer) Writer() io.Writer { return p.out }

// Logo prints the banner
func (p *Printer) Logo() {
	fmt.Fprint(p.out, p.render(termLogoStyle, Logo))
}

// Error prints msg, followed by err when given
func (p *Printer) Error(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(p.out, p.render(termErrorStyle, msg))
}

// Success prints a success line
func (p *Printer) Success(msg string) {
	fmt.Fprintln(p.out, p.render(termSuccessStyle, msg))
}

// Info prints a label and its value
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.out, "%s: %s\n", p.render(termLabelStyle, label), p.render(termValueStyle, value))
}

// Warning prints a warning line
func (p *Printer) Warning(msg string) {
	fmt.Fprintln(p.out, p.render(termWarningStyle, msg))
}

// Highlight prints a highlighted line
func (p *Printer) Highlight(msg string) {
	fmt.Fprintln(p.out, p.render(termHighlightStyle, msg))
}

// Dim prints a de-emphasized line
func (p *Printer) Dim(msg string) {
	fmt.Fprintln(p.out, p.render(termDimStyle, msg))
}
