// Package store persists Settings as the JSON snapshot plus the derived RC
// file. The JSON file is authoritative; the RC file is read only when the
// JSON file does not exist.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"shimwrapper-dashboard/rc"
	"shimwrapper-dashboard/settings"
)

// FileName is the JSON snapshot file name under the project root.
const FileName = ".shimwrappercheck-presets.json"

// ErrNoPresets rejects a write whose presets list is missing or empty.
var ErrNoPresets = errors.New("store: presets must be a non-empty array")

// Source says where a Snapshot was loaded from.
type Source string

const (
	SourceJSON     Source = "json"
	SourceRC       Source = "rc"
	SourceDefaults Source = "defaults"
)

// Snapshot is the result of a read. Err carries a soft failure: Settings is
// always usable, falling back to defaults.
type Snapshot struct {
	Settings    settings.Settings
	LastUpdated *time.Time
	Source      Source
	Err         error
}

// Manager reads and writes the two settings files of one project root.
// Writes are serialised; reads always go to disk so edits made outside the
// process are picked up. There is no version check: the last writer wins.
type Manager struct {
	mu     sync.RWMutex
	root   string
	logger *zap.Logger
}

// NewManager returns a Manager for the project at root.
func NewManager(root string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{root: root, logger: logger}
}

// Root returns the project root.
func (m *Manager) Root() string { return m.root }

// JSONPath is the location of the JSON snapshot.
func (m *Manager) JSONPath() string { return filepath.Join(m.root, FileName) }

// RCPath is the location of the derived RC file.
func (m *Manager) RCPath() string { return filepath.Join(m.root, rc.FileName) }

// Read loads the JSON snapshot merged onto defaults, else decodes the RC
// file, else returns defaults. It never fails hard.
func (m *Manager) Read() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read()
}

func (m *Manager) read() Snapshot {
	data, err := os.ReadFile(m.JSONPath())
	switch {
	case err == nil:
		snap := Snapshot{Source: SourceJSON, LastUpdated: m.modTime(m.JSONPath())}
		s, perr := Merge(settings.Defaults(), data)
		if perr != nil {
			m.logger.Warn("settings file partly unreadable, defaults filled in",
				zap.String("path", m.JSONPath()), zap.Error(perr))
			snap.Err = perr
		}
		snap.Settings = s
		return snap
	case !errors.Is(err, os.ErrNotExist):
		m.logger.Warn("settings file unreadable, using defaults",
			zap.String("path", m.JSONPath()), zap.Error(err))
		return Snapshot{Settings: settings.Defaults(), Source: SourceDefaults, Err: fmt.Errorf("read settings: %w", err)}
	}

	text, err := os.ReadFile(m.RCPath())
	switch {
	case err == nil:
		return Snapshot{Settings: settings.Normalize(rc.Decode(string(text))), Source: SourceRC}
	case !errors.Is(err, os.ErrNotExist):
		m.logger.Warn("rc file unreadable, using defaults",
			zap.String("path", m.RCPath()), zap.Error(err))
		return Snapshot{Settings: settings.Defaults(), Source: SourceDefaults, Err: fmt.Errorf("read rc: %w", err)}
	}
	return Snapshot{Settings: settings.Defaults(), Source: SourceDefaults}
}

// Write validates and persists s: the JSON snapshot first, then the RC file
// derived from it. If the JSON write fails the RC file is left untouched. A
// crash between the two steps leaves the RC file stale until the next save,
// which is harmless because the RC file is never read while JSON exists.
func (m *Manager) Write(s settings.Settings) (settings.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(s)
}

func (m *Manager) write(s settings.Settings) (settings.Settings, error) {
	if len(s.Presets) == 0 {
		return s, ErrNoPresets
	}
	s = settings.Normalize(s)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return s, fmt.Errorf("encode settings: %w", err)
	}
	if err := writeAtomic(m.JSONPath(), append(data, '\n')); err != nil {
		return s, fmt.Errorf("write settings: %w", err)
	}
	if err := writeAtomic(m.RCPath(), []byte(rc.Encode(s))); err != nil {
		return s, fmt.Errorf("write rc: %w", err)
	}
	m.logger.Debug("settings saved",
		zap.String("root", m.root),
		zap.Int("presets", len(s.Presets)),
		zap.Int("active_checks", len(s.CheckOrder)))
	return s, nil
}

// Update reads the current settings, applies fn and writes the result when
// fn reports a change, all under the write lock. The returned bool tells
// whether a write happened.
func (m *Manager) Update(fn func(settings.Settings) (settings.Settings, bool, error)) (settings.Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.read()
	next, changed, err := fn(snap.Settings)
	if err != nil || !changed {
		return snap.Settings, false, err
	}
	saved, err := m.write(next)
	if err != nil {
		return snap.Settings, false, err
	}
	return saved, true, nil
}

func (m *Manager) modTime(path string) *time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return nil
	}
	t := fi.ModTime()
	return &t
}

// writeAtomic writes to a temp file then renames it over path.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
