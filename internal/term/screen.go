package term

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
	xterm "golang.org/x/term"
)

const (
	fallbackWidth = 80
	minWidth      = 1

	cursorHideSeq  = "\x1b[?25l"
	cursorShowSeq  = "\x1b[?25h"
	clearScreenSeq = "\x1b[2J\x1b[H"
)

//nolint:gochecknoglobals // immutable compiled pattern shared across renders.
var ansiSeqPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// Screen owns a region of the terminal and redraws it incrementally: it
// remembers how many terminal rows the previous frame occupied and erases
// exactly that many rows before writing the next frame, so nothing outside
// the region flickers or scrolls away.
type Screen struct {
	out      io.Writer
	width    func() int
	relative bool // cursor-relative move-and-clear sequences are usable

	rows    int
	initial bool

	cursorMu    sync.Mutex
	cursorDepth int
}

// NewScreen returns a Screen bound to stdout. Relative cursor movement is
// used only when stdout is an interactive terminal; otherwise every render
// degrades to a plain full redraw.
func NewScreen() *Screen {
	fd := int(os.Stdout.Fd())
	return &Screen{
		out:      os.Stdout,
		width:    func() int { return stdoutWidth(fd) },
		relative: xterm.IsTerminal(fd),
		initial:  true,
	}
}

func stdoutWidth(fd int) int {
	w, _, err := xterm.GetSize(fd)
	if err != nil || w < minWidth {
		return fallbackWidth
	}
	return w
}

// Render replaces the previous frame with lines. The first render after
// Reset clears the whole screen; later renders move the cursor up by the
// recorded row count and clear from there to the end of the screen.
func (s *Screen) Render(lines []string) {
	shown := s.rowsFor(lines)
	switch {
	case s.initial:
		s.clear()
		s.initial = false
	case s.relative && s.rows > 0:
		fmt.Fprintf(s.out, "\x1b[%dF\x1b[J", s.rows)
	default:
		s.clear()
	}
	fmt.Fprintln(s.out, strings.Join(lines, "\n"))
	s.rows = shown
}

// Reset drops the erase baseline so the next Render starts from a clean
// screen instead of erasing rows that no longer exist.
func (s *Screen) Reset() {
	s.rows = 0
	s.initial = true
}

// Clear wipes the viewport immediately and resets the erase baseline. Used
// between menu loops and plain prompt screens.
func (s *Screen) Clear() {
	s.Reset()
	s.clear()
}

// HideCursor hides the cursor and returns a release function. Acquisition
// is reference counted: the cursor reappears only when the outermost
// release runs. Releasing twice is a no-op.
func (s *Screen) HideCursor() func() {
	s.cursorMu.Lock()
	if s.cursorDepth == 0 && s.relative {
		fmt.Fprint(s.out, cursorHideSeq)
	}
	s.cursorDepth++
	s.cursorMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.cursorMu.Lock()
			defer s.cursorMu.Unlock()
			if s.cursorDepth == 0 {
				return
			}
			s.cursorDepth--
			if s.cursorDepth == 0 && s.relative {
				fmt.Fprint(s.out, cursorShowSeq)
			}
		})
	}
}

// rowsFor computes how many terminal rows the frame occupies at the current
// width: ceil(visible/width) per line, and at least one row per line so an
// empty line still counts.
func (s *Screen) rowsFor(lines []string) int {
	width := s.width()
	if width < minWidth {
		width = minWidth
	}
	total := 0
	for _, line := range lines {
		visible := visibleWidth(line)
		if visible == 0 {
			total++
			continue
		}
		total += (visible + width - 1) / width
	}
	return total
}

func (s *Screen) clear() {
	if s.relative {
		fmt.Fprint(s.out, clearScreenSeq)
		return
	}
	fmt.Fprintln(s.out)
}

// visibleWidth measures the printed cell width of a line with style
// sequences stripped.
func visibleWidth(line string) int {
	return runewidth.StringWidth(ansiSeqPattern.ReplaceAllString(line, ""))
}
