package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/relayscan/relayscan/scan"
)

// ProgressPrinter rewrites a single status line in place while a run is
// going. It is safe to hand its Update method to concurrent workers.
type ProgressPrinter struct {
	mu        sync.Mutex
	out       io.Writer
	width     int
	lastWidth int
	verbose   bool
	start     time.Time
}

// NewProgress builds a printer writing to stdout. width bounds the status
// line; pass 0 for the default 100 columns. verbose additionally prints a
// permanent line for every accepted address.
func NewProgress(width int, verbose bool) *ProgressPrinter {
	if width <= 0 {
		width = 100
	}
	return &ProgressPrinter{
		out:     os.Stdout,
		width:   width,
		verbose: verbose,
		start:   time.Now(),
	}
}

// Update rewrites the status line with the latest counters. Called from
// worker goroutines, so it has to stay cheap.
func (p *ProgressPrinter) Update(pr scan.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.verbose && pr.Last != nil {
		p.clearLocked()
		fmt.Fprintf(color.Output, "%s %s\n",
			color.New(color.FgGreen).Sprintf("[hit]"),
			fmt.Sprintf("%s:%d#%s %.2fms", pr.Last.Addr, pr.Last.Port, pr.Last.Country, pr.Last.LatencyMS()),
		)
	}

	rate := float64(pr.Scanned) / time.Since(p.start).Seconds()
	line := fmt.Sprintf("scanned %d | accepted %d | failed %d | rejected %d | %.0f/s",
		pr.Scanned, pr.Accepted, pr.Failed, pr.Rejected, rate)
	line = runewidth.Truncate(line, p.width, "...")

	pad := p.lastWidth - runewidth.StringWidth(line)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintf(p.out, "\r%s%s", line, strings.Repeat(" ", pad))
	p.lastWidth = runewidth.StringWidth(line)
}

// Done clears the status line so the final report starts on a clean row.
func (p *ProgressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

func (p *ProgressPrinter) clearLocked() {
	if p.lastWidth == 0 {
		return
	}
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", p.lastWidth))
	p.lastWidth = 0
}
