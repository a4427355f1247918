package term

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	xterm "golang.org/x/term"
)

// Event is one discrete navigation gesture read from the keyboard.
type Event int

const (
	// None means the byte read did not map to a gesture; callers must leave
	// their state unchanged.
	None Event = iota
	Up
	Down
	Confirm
	Cancel
)

func (e Event) String() string {
	switch e {
	case Up:
		return "up"
	case Down:
		return "down"
	case Confirm:
		return "confirm"
	case Cancel:
		return "cancel"
	default:
		return "none"
	}
}

// escapeLookahead is how long a lone ESC byte may wait for a continuation
// byte before it is taken as a bare Escape press.
const escapeLookahead = 50 * time.Millisecond

// ErrInputClosed is returned when the input stream ends while waiting for a
// key.
var ErrInputClosed = errors.New("input stream closed")

// Interactive reports whether stdin supports raw single-key reads. It must
// be checked before entering any menu loop; without it ReadKey would hang
// or fail mid-flow.
func Interactive() bool {
	return xterm.IsTerminal(int(os.Stdin.Fd()))
}

// Reader produces navigation events from the terminal in raw mode. Bytes
// are pumped by a background goroutine into a channel so the escape
// lookahead and the stale-input drain are both select-based.
type Reader struct {
	in        io.Reader
	fd        int
	rawMode   bool
	bytes     chan byte
	startOnce sync.Once
}

// NewReader returns a Reader bound to stdin. Raw mode is entered for the
// duration of each ReadKey call and always restored.
func NewReader() *Reader {
	return &Reader{
		in:      os.Stdin,
		fd:      int(os.Stdin.Fd()),
		rawMode: true,
		bytes:   make(chan byte, 64),
	}
}

// ReadKey blocks until one logical key gesture arrives and returns its
// event. Keys buffered before the call are discarded so repeated presses
// during a slow render do not replay. A multi-byte arrow sequence counts as
// a single gesture.
func (r *Reader) ReadKey() (Event, error) {
	if r.rawMode {
		state, err := xterm.MakeRaw(r.fd)
		if err != nil {
			return None, err
		}
		defer func() { _ = xterm.Restore(r.fd, state) }()
	}
	r.start()
	r.drain()

	b, ok := <-r.bytes
	if !ok {
		return None, ErrInputClosed
	}

	switch b {
	case '\r', '\n':
		return Confirm, nil
	case 0x1b:
		return r.resolveEscape(), nil
	default:
		return None, nil
	}
}

// ReadLine blocks until a full line arrives and returns it with surrounding
// whitespace trimmed. The terminal stays in cooked mode so the driver keeps
// echo and line editing; the bytes still arrive through the shared pump, so
// stdin has exactly one reader whether the caller wants gestures or lines.
func (r *Reader) ReadLine() (string, error) {
	r.start()

	var line strings.Builder
	for {
		b, ok := <-r.bytes
		if !ok {
			if line.Len() > 0 {
				return strings.TrimSpace(line.String()), nil
			}
			return "", ErrInputClosed
		}
		if b == '\r' || b == '\n' {
			return strings.TrimSpace(line.String()), nil
		}
		line.WriteByte(b)
	}
}

// resolveEscape distinguishes a bare Escape press from the head of an arrow
// key sequence by a short non-blocking lookahead.
func (r *Reader) resolveEscape() Event {
	next, ok := r.readByte(escapeLookahead)
	if !ok {
		return Cancel
	}
	if next != '[' {
		return None
	}
	arrow, ok := r.readByte(escapeLookahead)
	if !ok {
		return None
	}
	switch arrow {
	case 'A':
		return Up
	case 'B':
		return Down
	default:
		return None
	}
}

func (r *Reader) readByte(timeout time.Duration) (byte, bool) {
	select {
	case b, ok := <-r.bytes:
		return b, ok
	case <-time.After(timeout):
		return 0, false
	}
}

// drain discards any bytes already buffered before this gesture began.
func (r *Reader) drain() {
	for {
		select {
		case <-r.bytes:
		default:
			return
		}
	}
}

func (r *Reader) start() {
	r.startOnce.Do(func() {
		go r.pump()
	})
}

func (r *Reader) pump() {
	buf := make([]byte, 1)
	for {
		n, err := r.in.Read(buf)
		if n > 0 {
			r.bytes <- buf[0]
		}
		if err != nil {
			close(r.bytes)
			return
		}
	}
}
