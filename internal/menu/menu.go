// Package menu drives selection among N options on top of the raw input
// reader and the incremental screen renderer. The controller is strictly
// single-threaded; it owns the terminal for the duration of Run.
package menu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vidra-cli/vidra/internal/term"
)

// ErrCancelled is returned when the user backs out of a menu without
// confirming a choice.
var ErrCancelled = errors.New("selection cancelled")

// ErrNoOptions is returned when a build cycle produces an empty option set.
var ErrNoOptions = errors.New("menu has no options")

// Option is a single selectable row. Options carry no selection state; the
// controller derives the selected row from its own cursor so a rebuilt
// option set can never go stale.
type Option struct {
	Label string
	Value string
	Hint  string
}

// Renderer is the screen surface a menu draws on.
type Renderer interface {
	Render(lines []string)
	Reset()
}

// KeyReader yields one navigation event per call.
type KeyReader interface {
	ReadKey() (term.Event, error)
}

// Controller runs a wraparound selection loop. Options are rebuilt fresh on
// every render cycle via Build, so menus whose option set depends on
// mutable state (settings values) always display current data.
type Controller struct {
	Screen Renderer
	Input  KeyReader

	// Build returns the current option set. Called once per render cycle.
	Build func() []Option
	// Banner returns lines drawn above the options, rebuilt per cycle.
	// Optional.
	Banner func() []string
	// Footer lines are drawn below the options. Optional.
	Footer []string

	selection int
}

// Run renders the menu and processes events until the user confirms or
// cancels. It returns the confirmed option index, or ErrCancelled. On
// either outcome the renderer is reset so the next unrelated render starts
// from a clean erase baseline.
func (c *Controller) Run() (int, error) {
	for {
		opts := c.Build()
		if len(opts) == 0 {
			c.Screen.Reset()
			return 0, ErrNoOptions
		}
		if c.selection >= len(opts) {
			c.selection = len(opts) - 1
		}
		c.Screen.Render(c.frame(opts))

		ev, err := c.Input.ReadKey()
		if err != nil {
			c.Screen.Reset()
			return 0, err
		}
		n := len(opts)
		switch ev {
		case term.Up:
			c.selection = (c.selection - 1 + n) % n
		case term.Down:
			c.selection = (c.selection + 1) % n
		case term.Confirm:
			c.Screen.Reset()
			return c.selection, nil
		case term.Cancel:
			c.Screen.Reset()
			return 0, ErrCancelled
		case term.None:
			// No recognized gesture; state unchanged.
		}
	}
}

func (c *Controller) frame(opts []Option) []string {
	var lines []string
	if c.Banner != nil {
		lines = append(lines, c.Banner()...)
	}
	for i, opt := range opts {
		lines = append(lines, FormatOption(opt, i == c.selection))
	}
	lines = append(lines, c.Footer...)
	return lines
}

// FormatOption renders one option row with the selection marker and
// role-based coloring. ON/OFF values take the success/warning colors so
// toggles read at a glance.
func FormatOption(opt Option, selected bool) string {
	marker := " "
	label := opt.Label
	if selected {
		marker = term.Accent("›")
		label = term.AccentBold(opt.Label)
	}
	parts := []string{fmt.Sprintf("%s %s", marker, label)}
	if opt.Value != "" {
		switch strings.ToUpper(opt.Value) {
		case "ON", "ENABLED":
			parts = append(parts, term.Success(opt.Value))
		case "OFF", "DISABLED":
			parts = append(parts, term.Warning(opt.Value))
		default:
			parts = append(parts, term.Value(opt.Value))
		}
	}
	if opt.Hint != "" {
		parts = append(parts, term.Warning("("+opt.Hint+")"))
	}
	return strings.Join(parts, " ")
}
