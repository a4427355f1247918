// Package settings persists the flat configuration record that drives the
// interactive app. Loading never fails the process: unreadable or invalid
// files fall back to defaults field by field.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vidra-cli/vidra/internal/validate"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600

	defaultParallel  = 4
	defaultRetries   = 2
	defaultChunkKiB  = 512
	defaultOutputDir = "~/Downloads/vidra"
)

// managedConfigPath is the system-wide managed defaults file. Variable so
// tests can point it elsewhere.
//
//nolint:gochecknoglobals // test seam for the managed config location.
var managedConfigPath = "/etc/vidra/config.yaml"

// Record is the persisted configuration.
type Record struct {
	OutputFolder      string `json:"output_folder" validate:"required"`
	OverwriteExisting bool   `json:"overwrite_existing"`
	ParallelDownloads int    `json:"parallel_downloads" validate:"min=1,max=16"`
	RetryAttempts     int    `json:"retry_attempts" validate:"min=1,max=10"`
	ChunkSizeKiB      int    `json:"chunk_size_kib" validate:"min=64,max=4096"`
	ShowStatusPanel   bool   `json:"show_status_panel"`
}

// Defaults returns the compiled-in record, with the managed system config
// applied on top when present.
func Defaults() Record {
	rec := Record{
		OutputFolder:      defaultOutputDir,
		OverwriteExisting: false,
		ParallelDownloads: defaultParallel,
		RetryAttempts:     defaultRetries,
		ChunkSizeKiB:      defaultChunkKiB,
		ShowStatusPanel:   true,
	}
	applyManagedConfig(&rec)
	return rec
}

// Store handles loading and saving of the settings file.
type Store struct {
	Path   string
	Record Record
}

// DefaultPath is the per-user settings location.
func DefaultPath() string {
	return "~/.config/vidra/settings.json"
}

// NewStore returns a Store for path with the record loaded. Any read or
// parse failure leaves the defaults in place; the process never fails to
// start over a bad settings file.
func NewStore(path string) *Store {
	s := &Store{
		Path:   expandTilde(path),
		Record: Defaults(),
	}
	s.Load()
	return s
}

// Load reads the settings file into the record. Invalid fields are
// self-healed back to their defaults rather than rejected wholesale.
func (s *Store) Load() {
	logrus.Debug("loading settings from: ", s.Path)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.Debugf("settings unreadable, using defaults: %v", err)
		}
		return
	}

	loaded := s.Record
	if err := json.Unmarshal(data, &loaded); err != nil {
		logrus.Warnf("settings file is corrupt, using defaults: %v", err)
		return
	}

	if err := validate.Struct(loaded); err != nil {
		logrus.Warn("settings file has out-of-range values; restoring defaults for them.")
		loaded = healed(loaded)
	}
	s.Record = loaded
}

// Save writes the record to disk, creating the parent directory when
// needed. A failed save does not roll back the in-memory record.
func (s *Store) Save() error {
	logrus.Debug("saving settings to: ", s.Path)
	if err := os.MkdirAll(filepath.Dir(s.Path), dirPerm); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.Record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, filePerm)
}

// OutputDir returns the output folder with the tilde expanded.
func (s *Store) OutputDir() string {
	return expandTilde(s.Record.OutputFolder)
}

// healed replaces each out-of-range field with its default while keeping
// valid ones.
func healed(rec Record) Record {
	def := Defaults()
	if rec.OutputFolder == "" {
		rec.OutputFolder = def.OutputFolder
	}
	if validate.Var(rec.ParallelDownloads, "min=1,max=16") != nil {
		rec.ParallelDownloads = def.ParallelDownloads
	}
	if validate.Var(rec.RetryAttempts, "min=1,max=10") != nil {
		rec.RetryAttempts = def.RetryAttempts
	}
	if validate.Var(rec.ChunkSizeKiB, "min=64,max=4096") != nil {
		rec.ChunkSizeKiB = def.ChunkSizeKiB
	}
	return rec
}

// managedConfig mirrors the optional system-wide defaults file. Pointer
// fields distinguish "absent" from zero values.
type managedConfig struct {
	OutputFolder      *string `yaml:"output_folder"`
	ParallelDownloads *int    `yaml:"parallel_downloads"`
	RetryAttempts     *int    `yaml:"retry_attempts"`
	ShowStatusPanel   *bool   `yaml:"show_status_panel"`
}

// applyManagedConfig overlays values from the managed system config when
// the file exists and parses. Errors are ignored; managed config is
// advisory.
func applyManagedConfig(rec *Record) {
	data, err := os.ReadFile(managedConfigPath)
	if err != nil {
		return
	}
	var mc managedConfig
	if err := yaml.Unmarshal(data, &mc); err != nil {
		logrus.Debugf("ignoring malformed managed config: %v", err)
		return
	}
	if mc.OutputFolder != nil && *mc.OutputFolder != "" {
		rec.OutputFolder = *mc.OutputFolder
	}
	if mc.ParallelDownloads != nil && validate.Var(*mc.ParallelDownloads, "min=1,max=16") == nil {
		rec.ParallelDownloads = *mc.ParallelDownloads
	}
	if mc.RetryAttempts != nil && validate.Var(*mc.RetryAttempts, "min=1,max=10") == nil {
		rec.RetryAttempts = *mc.RetryAttempts
	}
	if mc.ShowStatusPanel != nil {
		rec.ShowStatusPanel = *mc.ShowStatusPanel
	}
}

// expandTilde expands a leading tilde to the user's home directory.
func expandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
