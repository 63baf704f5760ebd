package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
	"github.com/custodia-labs/taxonomist/internal/core/ports/driving"
)

// Ensure progressPrinter implements the interface.
var _ driving.Observer = (*progressPrinter)(nil)

// progressPrinter reports pipeline progress. On a terminal, per-document
// counts overwrite one line; otherwise only stage totals are printed.
type progressPrinter struct {
	mu  sync.Mutex
	w   io.Writer
	tty bool

	// open is true while a counter line is waiting for its newline.
	open bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &progressPrinter{w: w, tty: tty}
}

func (p *progressPrinter) OnStage(stage domain.Stage) {
	p.printf("» %s\n", stage)
}

func (p *progressPrinter) OnStatus(message string) {
	p.printf("  %s\n", message)
}

func (p *progressPrinter) OnDocument(stage domain.Stage, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tty {
		fmt.Fprintf(p.w, "\r  %s %d/%d", stage, done, total)
		p.open = done < total
		if !p.open {
			fmt.Fprintln(p.w)
		}
		return
	}
	if done == total {
		fmt.Fprintf(p.w, "  %s %d/%d\n", stage, done, total)
	}
}

func (p *progressPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		fmt.Fprintln(p.w)
		p.open = false
	}
	fmt.Fprintf(p.w, format, args...)
}
