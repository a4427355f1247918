// Package app wires the menu engine, the fetch service and the download
// orchestrator into the interactive flow: main menu, format selection,
// settings editing and the library view.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vidra-cli/vidra/internal/download"
	"github.com/vidra-cli/vidra/internal/fetch"
	"github.com/vidra-cli/vidra/internal/library"
	"github.com/vidra-cli/vidra/internal/menu"
	"github.com/vidra-cli/vidra/internal/progress"
	"github.com/vidra-cli/vidra/internal/settings"
	"github.com/vidra-cli/vidra/internal/term"
)

// screen is the terminal surface the app draws on.
type screen interface {
	Render(lines []string)
	Reset()
	Clear()
	HideCursor() func()
}

// reporterFor builds the progress sink used during a run; swapped in tests.
type reporterFor func() download.Reporter

// lineKeyReader is the single owner of the input stream: every gesture and
// every typed line flows through it, so no second reader can steal bytes.
type lineKeyReader interface {
	menu.KeyReader
	ReadLine() (string, error)
}

// App is the interactive application.
type App struct {
	Store      *settings.Store
	Screen     screen
	Input      lineKeyReader
	Out        io.Writer
	NewFetcher func(overwrite bool) fetch.Service

	newReporter reporterFor

	mainMenu     *menu.Controller
	settingsMenu *menu.Controller
}

// New returns an App bound to the real terminal and the yt-dlp fetch
// service.
func New(store *settings.Store) *App {
	a := &App{
		Store:  store,
		Screen: term.NewScreen(),
		Input:  term.NewReader(),
		Out:    os.Stdout,
		NewFetcher: func(overwrite bool) fetch.Service {
			return fetch.NewYTDLPService(overwrite)
		},
		newReporter: func() download.Reporter { return progress.NewAggregator() },
	}
	return a
}

// Run drives the main menu until the user exits.
func (a *App) Run(ctx context.Context) error {
	a.mainMenu = &menu.Controller{
		Screen: a.Screen,
		Input:  a.Input,
		Banner: a.mainBanner,
		Build: func() []menu.Option {
			return []menu.Option{
				{Label: "Download video"},
				{Label: "Library"},
				{Label: "Settings"},
				{Label: "Exit"},
			}
		},
		Footer: []string{"", term.Accent("Use ↑/↓ to navigate, Enter to select.")},
	}

	for {
		idx, err := a.runMenu(a.mainMenu)
		if err != nil {
			if errors.Is(err, menu.ErrCancelled) {
				a.Screen.Clear()
				return nil
			}
			return err
		}
		switch idx {
		case 0:
			a.downloadFlow(ctx)
		case 1:
			a.libraryFlow()
		case 2:
			a.settingsFlow()
		case 3:
			a.Screen.Clear()
			fmt.Fprintln(a.Out, term.Success("Goodbye!"))
			return nil
		}
	}
}

// runMenu holds the cursor hidden for the duration of one menu loop.
func (a *App) runMenu(c *menu.Controller) (int, error) {
	release := a.Screen.HideCursor()
	defer release()
	return c.Run()
}

func (a *App) mainBanner() []string {
	lines := a.statusPanel()
	lines = append(lines,
		term.Header("vidra video downloader"),
		"",
		term.Header("Menu"),
	)
	return lines
}

// downloadFlow walks one URL from prompt to outcome report. Every failure
// along the way is recovered locally: shown, acknowledged, and the flow
// returns to the main menu.
func (a *App) downloadFlow(ctx context.Context) {
	a.freshScreen()
	fmt.Fprintln(a.Out, term.Header("Download Video"))

	url := a.promptLine("Enter video URL")
	if url == "" {
		a.notePause(term.Warning("No URL provided"))
		return
	}

	fmt.Fprintln(a.Out, term.Info("Fetching formats..."))
	fetcher := a.NewFetcher(a.Store.Record.OverwriteExisting)
	info, err := fetcher.ListFormats(ctx, url)
	if errors.Is(err, fetch.ErrNoFormats) {
		a.notePause(term.Warning("No combined video+audio formats found"))
		return
	}
	if err != nil {
		logrus.Debugf("format enumeration failed: %v", err)
		a.notePause(term.Error("Error: " + err.Error()))
		return
	}
	if len(info.Formats) == 0 {
		a.notePause(term.Warning("No combined video+audio formats found"))
		return
	}

	format, ok := a.selectFormat(info.Formats)
	if !ok {
		a.notePause(term.Info("Download cancelled"))
		return
	}

	if !a.confirmSummary(info, format) {
		a.notePause(term.Warning("Download cancelled"))
		return
	}

	destDir := a.Store.OutputDir()
	if err := os.MkdirAll(destDir, 0o700); err != nil {
		a.notePause(term.Error("Cannot create output folder: " + err.Error()))
		return
	}

	fmt.Fprintln(a.Out, term.Info("Starting download..."))
	rec := a.Store.Record
	job := download.NewJob(url, format.ID, destDir, rec.RetryAttempts)
	orch := download.New(fetcher, a.newReporter())
	outcomes := orch.Run(ctx, []download.Job{job}, rec.ParallelDownloads)

	a.reportOutcomes(outcomes)
	a.pause()
}

// selectFormat runs the format menu; formats arrive sorted by descending
// height and are displayed in that order.
func (a *App) selectFormat(formats []fetch.Format) (fetch.Format, bool) {
	c := &menu.Controller{
		Screen: a.Screen,
		Input:  a.Input,
		Banner: func() []string { return []string{term.Header("Select Format")} },
		Build: func() []menu.Option {
			opts := make([]menu.Option, 0, len(formats))
			for _, f := range formats {
				opts = append(opts, menu.Option{Label: f.Label(), Value: f.Describe()})
			}
			return opts
		},
		Footer: []string{"", term.Accent("Use ↑/↓ to navigate, Enter to select, ESC to cancel.")},
	}
	idx, err := a.runMenu(c)
	if err != nil {
		return fetch.Format{}, false
	}
	return formats[idx], true
}

// confirmSummary shows the summary screen and asks for a y/n go-ahead.
func (a *App) confirmSummary(info *fetch.MediaInfo, format fetch.Format) bool {
	a.freshScreen()
	fmt.Fprintln(a.Out, term.Header("Download Summary"))
	fmt.Fprintf(a.Out, " Title:       %s\n", term.Value(info.Title))
	fmt.Fprintf(a.Out, " Quality:     %s\n", term.Value(format.Label()))
	fmt.Fprintf(a.Out, " Format:      %s\n", term.Value(format.Describe()))
	fmt.Fprintf(a.Out, " Destination: %s\n", term.Info(a.Store.OutputDir()))

	if !a.Store.Record.OverwriteExisting {
		if existing := library.FindByTitle(a.Store.OutputDir(), info.Title); len(existing) > 0 {
			fmt.Fprintln(a.Out, term.Warning(fmt.Sprintf(
				" %d file(s) with this title already exist; overwrite is OFF.", len(existing))))
		}
	}

	answer := a.promptLine("Start download? (y/n)")
	return strings.EqualFold(answer, "y")
}

func (a *App) reportOutcomes(outcomes []download.Outcome) {
	failed := 0
	for _, out := range outcomes {
		if !out.Succeeded {
			failed++
		}
	}
	if failed == 0 {
		fmt.Fprintln(a.Out, term.Success("Download completed!"))
		return
	}
	fmt.Fprintln(a.Out, term.Warning("Some downloads failed"))
	for _, out := range outcomes {
		if !out.Succeeded {
			fmt.Fprintf(a.Out, "%s (after %d attempts)\n", term.Error(out.LastError.Error()), out.Attempts)
		}
	}
}

// libraryFlow lists what is already in the output folder.
func (a *App) libraryFlow() {
	a.freshScreen()
	fmt.Fprintln(a.Out, term.Header("Library"))

	entries, err := library.Scan(a.Store.OutputDir())
	if err != nil {
		a.notePause(term.Error("Cannot read library: " + err.Error()))
		return
	}
	if len(entries) == 0 {
		a.notePause(term.Info("No downloaded media yet."))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(a.Out, " %s %s\n", term.Code(e.Name()), term.Value(humanSize(e.SizeBytes)))
	}
	a.pause()
}

func (a *App) freshScreen() {
	a.Screen.Clear()
	if panel := a.statusPanel(); len(panel) > 0 {
		fmt.Fprintln(a.Out, strings.Join(panel, "\n"))
	}
}

// promptLine prints a styled prompt and reads one trimmed line through the
// shared input reader.
func (a *App) promptLine(label string) string {
	fmt.Fprint(a.Out, term.Accent(label+": "))
	line, err := a.Input.ReadLine()
	if err != nil {
		return ""
	}
	return line
}

// notePause prints one styled line and waits for acknowledgment.
func (a *App) notePause(line string) {
	fmt.Fprintln(a.Out, line)
	a.pause()
}

func (a *App) pause() {
	_ = a.promptLine("Press Enter to continue")
}
