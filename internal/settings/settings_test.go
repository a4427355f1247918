//nolint:testpackage // White-box tests require access to unexported identifiers in this package.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "settings.json")
}

func TestStore_DefaultsWhenFileMissing(t *testing.T) {
	s := NewStore(testPath(t))

	require.Equal(t, defaultParallel, s.Record.ParallelDownloads)
	require.Equal(t, defaultRetries, s.Record.RetryAttempts)
	require.Equal(t, defaultChunkKiB, s.Record.ChunkSizeKiB)
	require.True(t, s.Record.ShowStatusPanel)
}

func TestStore_SaveAndReload(t *testing.T) {
	path := testPath(t)
	s := NewStore(path)
	s.Record.ParallelDownloads = 8
	s.Record.OverwriteExisting = true
	require.NoError(t, s.Save())

	// Raw file carries the expected fields.
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	require.InDelta(t, 8, raw["parallel_downloads"], 0)
	require.Equal(t, true, raw["overwrite_existing"])

	s2 := NewStore(path)
	require.Equal(t, 8, s2.Record.ParallelDownloads)
	require.True(t, s2.Record.OverwriteExisting)
}

func TestStore_CorruptFileFallsBackToDefaults(t *testing.T) {
	path := testPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), filePerm))

	s := NewStore(path)
	require.Equal(t, defaultParallel, s.Record.ParallelDownloads)
}

func TestStore_OutOfRangeValuesAreHealed(t *testing.T) {
	path := testPath(t)
	payload := `{"output_folder":"/tmp/media","parallel_downloads":99,"retry_attempts":3,"chunk_size_kib":16,"show_status_panel":false}`
	require.NoError(t, os.WriteFile(path, []byte(payload), filePerm))

	s := NewStore(path)
	// Valid fields survive, invalid ones return to defaults.
	require.Equal(t, "/tmp/media", s.Record.OutputFolder)
	require.Equal(t, 3, s.Record.RetryAttempts)
	require.False(t, s.Record.ShowStatusPanel)
	require.Equal(t, defaultParallel, s.Record.ParallelDownloads)
	require.Equal(t, defaultChunkKiB, s.Record.ChunkSizeKiB)
}

func TestStore_SaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "settings.json")
	s := NewStore(path)
	require.NoError(t, s.Save())

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestManagedConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	managed := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(managed, []byte("parallel_downloads: 2\noutput_folder: /srv/media\n"), filePerm))

	orig := managedConfigPath
	managedConfigPath = managed
	t.Cleanup(func() { managedConfigPath = orig })

	rec := Defaults()
	require.Equal(t, 2, rec.ParallelDownloads)
	require.Equal(t, "/srv/media", rec.OutputFolder)
	require.Equal(t, defaultRetries, rec.RetryAttempts)
}

func TestManagedConfigIgnoresOutOfRangeValues(t *testing.T) {
	dir := t.TempDir()
	managed := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(managed, []byte("parallel_downloads: 64\n"), filePerm))

	orig := managedConfigPath
	managedConfigPath = managed
	t.Cleanup(func() { managedConfigPath = orig })

	require.Equal(t, defaultParallel, Defaults().ParallelDownloads)
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "x"), expandTilde("~/x"))
	require.Equal(t, "/abs/x", expandTilde("/abs/x"))
}
