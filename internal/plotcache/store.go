// Package plotcache persists rendered chart payloads as one JSON file per
// (chart, parameters, day-of-year) in a single directory.
package plotcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is a directory of cached chart payloads. It is safe for concurrent
// use: writes are atomic renames and removals tolerate files that are
// already gone.
type Store struct {
	dir string
}

// New returns a store rooted at dir. Call Init before first use.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Init creates the cache directory if needed.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create plot cache dir: %w", err)
	}
	return nil
}

// Get returns the cached payload for key. Any read or parse problem is a miss.
func (s *Store) Get(key Key) ([]byte, bool) {
	payload, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	if !json.Valid(payload) {
		return nil, false
	}
	return payload, true
}

// Put writes payload for key and then sweeps every file in the directory
// that belongs to a different day-of-year.
func (s *Store) Put(key Key, payload []byte) error {
	if err := s.Init(); err != nil {
		return err
	}
	if err := s.write(key, payload); err != nil {
		return err
	}
	if _, err := s.Sweep(key.DayOfYear); err != nil {
		return fmt.Errorf("failed to sweep plot cache: %w", err)
	}
	return nil
}

func (s *Store) write(key Key, payload []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+key.Filename()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	return nil
}

// Sweep removes every file whose name does not reference doy, including
// files that are not cache entries at all. In-flight temp files (dot
// prefixed) are left alone. It returns the number of files removed.
func (s *Store) Sweep(doy int) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list plot cache dir: %w", err)
	}

	var removed int
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if key, ok := ParseFilename(name); ok && key.DayOfYear == doy {
			continue
		}
		if err := remove(filepath.Join(s.dir, name)); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Clear removes every file in the cache directory.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to list plot cache dir: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := remove(filepath.Join(s.dir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Entry describes one cache file.
type Entry struct {
	Name    string    `json:"name"`
	Key     Key       `json:"key"`
	Valid   bool      `json:"valid"` // name parses as a cache key
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Status summarizes the cache directory.
type Status struct {
	Dir     string  `json:"dir"`
	Entries []Entry `json:"entries"`
	Files   int     `json:"files"`
	Bytes   int64   `json:"bytes"`
}

// Status lists the cache files.
func (s *Store) Status() (Status, error) {
	status := Status{Dir: s.dir}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return status, nil
		}
		return status, fmt.Errorf("failed to list plot cache dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed by a concurrent sweep
			continue
		}
		key, ok := ParseFilename(entry.Name())
		status.Entries = append(status.Entries, Entry{
			Name:    entry.Name(),
			Key:     key,
			Valid:   ok,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		status.Files++
		status.Bytes += info.Size()
	}
	return status, nil
}

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, key.Filename())
}

func remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
