// Package output provides styled terminal output for the pipeline commands.
// It wraps user-facing summaries in consistent lipgloss styling while
// degrading to plain text when styling is disabled.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Printer is the user-facing output handler for command summaries.
type Printer struct {
	writer io.Writer
	plain  bool

	mu sync.Mutex
}

// Option configures a Printer.
type Option func(*Printer)

// WithWriter redirects output (default os.Stdout).
func WithWriter(w io.Writer) Option {
	return func(p *Printer) { p.writer = w }
}

// WithPlain disables styling; useful for tests and non-TTY output.
func WithPlain() Option {
	return func(p *Printer) { p.plain = true }
}

// NewPrinter creates a new Printer with the given options.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{writer: os.Stdout}
	for _, opt := range options {
		opt(p)
	}
	return p
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
)

// Success outputs success text (typically green).
func (p *Printer) Success(text string) {
	p.write(p.render(successStyle, text) + "\n")
}

// Field outputs one labeled value of a command summary.
func (p *Printer) Field(label, format string, args ...interface{}) {
	value := fmt.Sprintf(format, args...)
	p.write(fmt.Sprintf("  %s %s\n", p.render(labelStyle, label+":"), p.render(valueStyle, value)))
}

func (p *Printer) render(style lipgloss.Style, text string) string {
	if p.plain {
		return text
	}
	return style.Render(text)
}

func (p *Printer) write(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.writer, text)
}
