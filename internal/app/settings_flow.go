package app

import (
	"fmt"
	"strconv"

	"github.com/vidra-cli/vidra/internal/menu"
	"github.com/vidra-cli/vidra/internal/term"
	"github.com/vidra-cli/vidra/internal/validate"
)

// Settings menu option indices. Options are rebuilt per cycle from the
// current record so edited values show immediately.
const (
	optOutputFolder = iota
	optOverwrite
	optParallel
	optRetries
	optChunkSize
	optStatusPanel
	optBack
)

func (a *App) settingsFlow() {
	if a.settingsMenu == nil {
		a.settingsMenu = &menu.Controller{
			Screen: a.Screen,
			Input:  a.Input,
			Banner: func() []string {
				return append(a.statusPanel(), term.Header("Settings"))
			},
			Build:  a.settingsOptions,
			Footer: []string{"", term.Accent("Use ↑/↓ to navigate, Enter to select.")},
		}
	}
	for {
		idx, err := a.runMenu(a.settingsMenu)
		if err != nil {
			return // cancel backs out to the main menu
		}
		if !a.applySetting(idx) {
			return
		}
	}
}

func (a *App) settingsOptions() []menu.Option {
	rec := a.Store.Record
	onOff := func(v bool) string {
		if v {
			return "ON"
		}
		return "OFF"
	}
	return []menu.Option{
		optOutputFolder: {Label: "Output folder", Value: rec.OutputFolder},
		optOverwrite:    {Label: "Overwrite", Value: onOff(rec.OverwriteExisting)},
		optParallel:     {Label: "Parallel downloads", Value: strconv.Itoa(rec.ParallelDownloads)},
		optRetries:      {Label: "Retry attempts", Value: strconv.Itoa(rec.RetryAttempts)},
		optChunkSize:    {Label: "Chunk size (KiB)", Value: strconv.Itoa(rec.ChunkSizeKiB)},
		optStatusPanel:  {Label: "Status panel", Value: onOff(rec.ShowStatusPanel)},
		optBack:         {Label: "Back", Hint: "main menu"},
	}
}

// applySetting edits one field. Returns false when the user chose Back.
func (a *App) applySetting(idx int) bool {
	a.Screen.Clear()
	switch idx {
	case optOutputFolder:
		if p := a.promptLine("New output folder"); p != "" {
			a.Store.Record.OutputFolder = p
			a.saveSettings("Output folder updated")
		} else {
			a.notePause(term.Warning("No folder provided"))
		}
	case optOverwrite:
		a.Store.Record.OverwriteExisting = !a.Store.Record.OverwriteExisting
		a.saveSettings("Overwrite toggled")
	case optParallel:
		if v, ok := a.promptInt("Parallel downloads (1-16)", "min=1,max=16"); ok {
			a.Store.Record.ParallelDownloads = v
			a.saveSettings(fmt.Sprintf("Parallel set to %d", v))
		}
	case optRetries:
		if v, ok := a.promptInt("Retry attempts (1-10)", "min=1,max=10"); ok {
			a.Store.Record.RetryAttempts = v
			a.saveSettings(fmt.Sprintf("Retries set to %d", v))
		}
	case optChunkSize:
		if v, ok := a.promptInt("Chunk size in KiB (64-4096)", "min=64,max=4096"); ok {
			a.Store.Record.ChunkSizeKiB = v
			a.saveSettings("Chunk size updated")
		}
	case optStatusPanel:
		a.Store.Record.ShowStatusPanel = !a.Store.Record.ShowStatusPanel
		a.saveSettings("Status panel toggled")
	case optBack:
		return false
	}
	return true
}

// promptInt reads an integer and validates it against tag. Rejections are
// reported and leave the record unchanged.
func (a *App) promptInt(label, tag string) (int, bool) {
	raw := a.promptLine(label)
	v, err := strconv.Atoi(raw)
	if err != nil || validate.Var(v, tag) != nil {
		a.notePause(term.Warning("Invalid number"))
		return 0, false
	}
	return v, true
}

// saveSettings persists the record. A failed save is reported but the
// in-memory change stays in effect.
func (a *App) saveSettings(okMessage string) {
	if err := a.Store.Save(); err != nil {
		a.notePause(term.Error("Could not save settings: " + err.Error() + " (change kept for this session)"))
		return
	}
	a.notePause(term.Success(okMessage))
}
