package term

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ANSI 256 palette indices shared by every surface that styles text.
const (
	headerColor  = "153" // pale blue
	accentColor  = "215" // light orange
	successColor = "40"  // green
	warningColor = "214" // orange
	errorColor   = "203" // soft red
	valueColor   = "51"  // cyan
	codeColor    = "39"  // blue
	infoColor    = "81"  // sky blue
)

//nolint:gochecknoglobals // Shared renderer singleton; styling capability is a process-wide property.
var (
	rendererOnce sync.Once
	renderer     *lipgloss.Renderer
)

// styleRenderer returns the process-wide lipgloss renderer. The single
// capability check lives here: when stdout is not an interactive terminal
// the profile is forced to ASCII so every style degrades to plain text.
func styleRenderer() *lipgloss.Renderer {
	rendererOnce.Do(func() {
		renderer = lipgloss.NewRenderer(os.Stdout)
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			renderer.SetColorProfile(termenv.Ascii)
		}
	})
	return renderer
}

func color(c string) lipgloss.Style {
	return styleRenderer().NewStyle().Foreground(lipgloss.Color(c))
}

// Header styles a section heading.
func Header(s string) string { return color(headerColor).Bold(true).Render(s) }

// Accent styles labels and prompts.
func Accent(s string) string { return color(accentColor).Render(s) }

// AccentBold styles the selected menu entry label.
func AccentBold(s string) string { return color(accentColor).Bold(true).Render(s) }

// Success styles positive outcomes.
func Success(s string) string { return color(successColor).Render(s) }

// Warning styles recoverable problems.
func Warning(s string) string { return color(warningColor).Render(s) }

// Error styles failures.
func Error(s string) string { return color(errorColor).Render(s) }

// Value styles configuration values and measurements.
func Value(s string) string { return color(valueColor).Render(s) }

// Code styles identifiers such as file names.
func Code(s string) string { return color(codeColor).Render(s) }

// Info styles informational notices.
func Info(s string) string { return color(infoColor).Render(s) }

// StatusText renders a boolean as a colored ON/OFF marker.
func StatusText(on bool) string {
	if on {
		return Success("ON")
	}
	return Warning("OFF")
}
