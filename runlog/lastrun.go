package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Dir and FileName locate the last-run record under the project root.
const (
	Dir      = ".shimwrapper"
	FileName = "last-run.json"
)

// LastRun is the output of the most recent runner invocation.
type LastRun struct {
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	Timestamp string `json:"timestamp"`
	ExitCode  *int   `json:"exitCode,omitempty"`
}

// Combined joins stdout and stderr the way the log view shows them.
func (r LastRun) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Log is the response shape of the run-log view.
type Log struct {
	Full      string            `json:"full"`
	Segments  map[string]string `json:"segments"`
	Timestamp *string           `json:"timestamp"`
}

// Path returns the last-run file path for root.
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// Read loads the last-run record. A missing file returns (nil, nil).
func Read(root string) (*LastRun, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read last run: %w", err)
	}
	var r LastRun
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse last run: %w", err)
	}
	return &r, nil
}

// Load builds the segmented log view for root. A missing or unreadable
// record yields an empty log.
func Load(root string, markers Markers) (Log, error) {
	r, err := Read(root)
	if err != nil || r == nil {
		return Log{Segments: map[string]string{}}, err
	}
	full := r.Combined()
	lg := Log{Full: full, Segments: Segment(full, markers)}
	if r.Timestamp != "" {
		ts := r.Timestamp
		lg.Timestamp = &ts
	}
	return lg, nil
}

// Write stores r atomically (temp file + rename).
func Write(root string, r LastRun) error {
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
