// Package diary keeps an ordered, JSON file backed list of captured
// request/response entries.
//
// The whole file is rewritten on every change. Writes go to a temporary
// file that is renamed over the target, so a crash mid-write leaves the
// previous version in place.
package diary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"sofetch/internal/logging"
	"sofetch/internal/types"
)

// DefaultPath is used when Open is given an empty path.
const DefaultPath = "testdata/diary.json"

var errNoEntries = errors.New("missing entries array")

type document struct {
	Entries []types.Entry `json:"entries"`
}

type Diary struct {
	path string
	log  *slog.Logger

	// mu also serializes Append so concurrent recordings are never lost.
	mu      sync.RWMutex
	entries []types.Entry
}

type Option func(*Diary)

func WithLogger(l *slog.Logger) Option {
	return func(d *Diary) {
		if l != nil {
			d.log = l
		}
	}
}

// Open resolves path and loads the diary from it. A missing or unparsable
// file is not an error: the diary starts empty and is written out at once.
func Open(path string, opts ...Option) (*Diary, error) {
	if path == "" {
		path = DefaultPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve diary path %q: %w", path, err)
	}
	d := &Diary{path: abs, log: logging.Nop(), entries: []types.Entry{}}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.Load(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Diary) Path() string { return d.path }

// Load replaces the in-memory entries with the file contents.
func (d *Diary) Load() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := readDocument(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.log.Debug("diary not found, creating", "path", d.path)
		} else {
			d.log.Warn("diary unreadable, starting empty", "path", d.path, "error", err)
		}
		d.entries = []types.Entry{}
		return d.persistLocked()
	}
	d.entries = entries
	d.log.Debug("diary loaded", "path", d.path, "entries", len(entries))
	return nil
}

// FindMatch returns the first entry, in insertion order, matching c.
func (d *Diary) FindMatch(c types.Candidate) (types.Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.entries {
		if e.Matches(c) {
			return e.Clone(), true
		}
	}
	return types.Entry{}, false
}

// Append adds e and rewrites the file. If the write fails the entry stays
// in memory for the rest of the session.
func (d *Diary) Append(e types.Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, e.Clone())
	return d.persistLocked()
}

// Persist rewrites the whole file from memory.
func (d *Diary) Persist() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.persistLocked()
}

func (d *Diary) Entries() []types.Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]types.Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.Clone()
	}
	return out
}

func (d *Diary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

func (d *Diary) persistLocked() error {
	b, err := json.MarshalIndent(document{Entries: d.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode diary: %w", err)
	}
	if err := writeFile(d.path, append(b, '\n')); err != nil {
		return fmt.Errorf("persist diary %s: %w", d.path, err)
	}
	return nil
}

func readDocument(path string) ([]types.Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Entries == nil {
		return nil, errNoEntries
	}
	return doc.Entries, nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".diary-*.json")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
