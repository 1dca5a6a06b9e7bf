// Package printer writes styled status lines for CLI commands.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/margin/internal/core/styles"
)

type ctxKey struct{}

// Printer writes one status line per call.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewContext returns a context carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or one writing to stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

func (p *Printer) line(icon string, style lipgloss.Style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if icon != "" {
		msg = style.Render(icon) + " " + msg
	}
	_, _ = fmt.Fprintln(p.w, msg)
}

// Successf prints a success line.
func (p *Printer) Successf(format string, args ...any) {
	p.line("✔", styles.SuccessStyle, format, args...)
}

// Infof prints an informational line.
func (p *Printer) Infof(format string, args ...any) {
	p.line("•", styles.InfoStyle, format, args...)
}

// Errorf prints an error line.
func (p *Printer) Errorf(format string, args ...any) {
	p.line("✘", styles.ErrorStyle, format, args...)
}

// Printf prints an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	p.line("", lipgloss.Style{}, format, args...)
}
