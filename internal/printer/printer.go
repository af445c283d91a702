// Package printer writes styled, human-oriented command output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/inbox/internal/core/styles"
)

// Printer writes status lines to a writer.
type Printer struct {
	w io.Writer
}

// New returns a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

type ctxKey struct{}

// NewContext stores p in ctx.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one writing to stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

func (p *Printer) line(prefix string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if prefix != "" {
		msg = prefix + " " + msg
	}
	_, _ = fmt.Fprintln(p.w, msg)
}

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	p.line("", format, args...)
}

// Successf writes a line prefixed with a check mark.
func (p *Printer) Successf(format string, args ...any) {
	p.line(styles.SuccessStyle.Render("✔"), format, args...)
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, args ...any) {
	p.line(styles.InfoStyle.Render("•"), format, args...)
}

// Warnf writes a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	p.line(styles.WarnStyle.Render("!"), format, args...)
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(styles.ErrorStyle.Render("✘"), format, args...)
}
