package app

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/vidra-cli/vidra/internal/term"
)

const panelLabelWidth = 15

// statusPanel renders the always-visible settings snapshot shown above the
// main and settings menus. Empty when the panel is turned off.
func (a *App) statusPanel() []string {
	rec := a.Store.Record
	if !rec.ShowStatusPanel {
		return nil
	}
	row := func(label, value string) string {
		return fmt.Sprintf(" %-*s %s", panelLabelWidth, term.Accent(label), value)
	}
	return []string{
		term.Header("VIDRA STATUS"),
		row("Output folder", term.Info(rec.OutputFolder)),
		row("Overwrite", term.StatusText(rec.OverwriteExisting)),
		row("Parallel", term.Value(strconv.Itoa(rec.ParallelDownloads))),
		row("Retries", term.Value(strconv.Itoa(rec.RetryAttempts))),
		row("Chunk (KiB)", term.Value(strconv.Itoa(rec.ChunkSizeKiB))),
		row("Status panel", term.StatusText(rec.ShowStatusPanel)),
		"",
	}
}

func humanSize(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}
