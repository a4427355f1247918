// Package fetch defines the media fetch service boundary: enumerating the
// encodings available for a locator and transferring one of them to disk
// while streaming byte-progress events to a callback.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
)

// ErrNoFormats is returned when a locator offers no combined
// audio+video encodings.
var ErrNoFormats = errors.New("no combined audio+video formats available")

// Format is one encoding available for a locator.
type Format struct {
	ID        string
	Height    int
	Ext       string
	SizeBytes int64
	FPS       float64
}

// Label is the short selector shown in the format menu, e.g. "1080p".
func (f Format) Label() string {
	if f.Height <= 0 {
		return f.ID
	}
	return fmt.Sprintf("%dp", f.Height)
}

// Describe summarizes container, size and frame rate for display.
func (f Format) Describe() string {
	size := "unknown size"
	if f.SizeBytes > 0 {
		size = humanize.IBytes(uint64(f.SizeBytes))
	}
	fps := "?"
	if f.FPS > 0 {
		fps = fmt.Sprintf("%g", f.FPS)
	}
	return fmt.Sprintf("%s | %s | %s fps", f.Ext, size, fps)
}

// MediaInfo describes a remote media item and its encodings.
type MediaInfo struct {
	Title   string
	Formats []Format
}

// ProgressEvent is one callback payload from a running transfer. Events
// within a single transfer arrive in order; no cross-transfer ordering is
// implied.
type ProgressEvent struct {
	Source   string
	Percent  string
	Speed    string
	Finished bool
}

// ProgressFunc receives transfer progress. It may be invoked from the
// transfer's own goroutine and must be safe to call concurrently with
// other transfers.
type ProgressFunc func(ProgressEvent)

// Service enumerates and transfers remote media.
type Service interface {
	// ListFormats resolves the title and the combined audio+video encodings
	// of locator, sorted by descending height.
	ListFormats(ctx context.Context, locator string) (*MediaInfo, error)
	// Transfer downloads one encoding into destDir, invoking onProgress
	// zero or more times with progress and at most once with a finished
	// event.
	Transfer(ctx context.Context, locator, formatID, destDir string, onProgress ProgressFunc) error
}

// SortByHeight orders formats by descending height in place, keeping the
// original order among equal heights.
func SortByHeight(formats []Format) {
	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i].Height > formats[j].Height
	})
}
