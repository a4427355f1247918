// Package progress aggregates byte-progress events from concurrent download
// workers into rate-limited terminal output. The aggregator is the only
// component that may write to the terminal while jobs are running; its lock
// serializes every write so partial lines from different workers never
// interleave.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vidra-cli/vidra/internal/term"
)

// updateInterval bounds terminal I/O volume under many parallel jobs: at
// most one accepted progress update per window, globally across sources.
const updateInterval = 500 * time.Millisecond

// Aggregator is a shared sink for progress events from concurrent jobs.
type Aggregator struct {
	mu          sync.Mutex
	out         io.Writer
	now         func() time.Time
	minInterval time.Duration

	lastUpdate    time.Time
	currentSource string
}

// NewAggregator returns an Aggregator writing to stdout.
func NewAggregator() *Aggregator {
	return newAggregator(os.Stdout, time.Now)
}

func newAggregator(out io.Writer, now func() time.Time) *Aggregator {
	return &Aggregator{
		out:         out,
		now:         now,
		minInterval: updateInterval,
	}
}

// Update reports transfer progress for source. Calls arriving inside the
// rate-limit window are dropped. When the source differs from the last
// accepted update, a header line attributes the following progress lines to
// the new source.
func (a *Aggregator) Update(source, percent, speed string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if !a.lastUpdate.IsZero() && now.Sub(a.lastUpdate) < a.minInterval {
		return
	}
	a.lastUpdate = now

	if source != a.currentSource {
		a.currentSource = source
		fmt.Fprintf(a.out, "\n%s %s\n", term.Info("[download]"), term.Code(source))
	}
	fmt.Fprintf(a.out, "\rprogress: %s | speed: %s", term.Value(percent), term.Value(speed))
}

// Complete writes the final line for source. Never rate-limited; exactly
// one line per call.
func (a *Aggregator) Complete(source string, succeeded bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	status := term.Success("✓ done")
	if !succeeded {
		status = term.Error("✗ failed")
	}
	fmt.Fprintf(a.out, "\r%s %s: %s\n", term.Info("[download]"), term.Code(source), status)
}
