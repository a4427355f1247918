// Package library inspects the download destination: listing media already
// on disk and spotting files a new transfer would collide with.
package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

//nolint:gochecknoglobals // immutable lookup table used across the package.
var mediaExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".webm": {},
	".mov":  {},
	".avi":  {},
	".m4a":  {},
	".mp3":  {},
	".opus": {},
}

// Entry is one media file found in the library.
type Entry struct {
	Path      string
	SizeBytes int64
}

// Name returns the file name without its directory.
func (e Entry) Name() string {
	return filepath.Base(e.Path)
}

// Scan walks root and returns the media files beneath it, sorted by path.
// A missing root yields an empty library, not an error.
func Scan(root string) ([]Entry, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		entries []Entry
	)
	conf := fastwalk.DefaultConfig
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries.
		}
		if d.IsDir() {
			return nil
		}
		if !isMediaFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		mu.Lock()
		entries = append(entries, Entry{Path: path, SizeBytes: info.Size()})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// FindByTitle returns library entries whose file name contains title,
// case-insensitively. Used to warn before a transfer that would collide
// with existing files when overwriting is disabled.
func FindByTitle(root, title string) []Entry {
	if strings.TrimSpace(title) == "" {
		return nil
	}
	entries, err := Scan(root)
	if err != nil {
		return nil
	}
	needle := strings.ToLower(title)
	var matches []Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name()), needle) {
			matches = append(matches, e)
		}
	}
	return matches
}

func isMediaFile(name string) bool {
	_, ok := mediaExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
