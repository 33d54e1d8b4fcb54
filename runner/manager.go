// Package runner starts the shimwrappercheck runner on demand and keeps its
// output for live streaming and for the persisted last-run record.
package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shimwrapper-dashboard/events"
	"shimwrapper-dashboard/runlog"
)

var ErrRunInProgress = errors.New("runner: a check run is already in progress")
var ErrNoCommand = errors.New("runner: command is empty")

// SpawnFunc starts r in dir and arranges for onExit to be called exactly
// once with the exit code after the last output chunk has been emitted.
type SpawnFunc func(r *Run, dir string, onExit func(code int)) error

// Config configures a Manager.
type Config struct {
	Root    string
	Command []string
	Bus     *events.Bus
	Logger  *zap.Logger
}

// Manager owns at most one active Run at a time.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	current *Run
	spawnFn SpawnFunc // nil → spawnPTY
}

func NewManager(cfg Config) *Manager {
	return NewManagerWithSpawnFn(cfg, nil)
}

// NewManagerWithSpawnFn creates a Manager with a custom spawn function.
// Pass StaticSpawnFn for an in-process fake that needs no PTY.
func NewManagerWithSpawnFn(cfg Config, fn SpawnFunc) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, spawnFn: fn}
}

// StaticSpawnFn returns a SpawnFunc that emits output and exits with code.
// When release is non-nil the fake process stays alive until it is closed.
func StaticSpawnFn(output string, code int, release <-chan struct{}) SpawnFunc {
	return func(r *Run, dir string, onExit func(int)) error {
		stop := make(chan struct{})
		var once sync.Once
		r.kill = func() { once.Do(func() { close(stop) }) }
		go func() {
			if output != "" {
				r.emit([]byte(output))
			}
			if release != nil {
				select {
				case <-release:
				case <-stop:
				}
			}
			onExit(code)
		}()
		return nil
	}
}

// Start launches a new run unless one is still active.
func (m *Manager) Start() (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.Running() {
		return nil, ErrRunInProgress
	}

	r := newRun(uuid.New().String(), m.cfg.Command)
	spawn := m.spawnFn
	if spawn == nil {
		spawn = spawnPTY
	}
	if err := spawn(r, m.cfg.Root, func(code int) { m.finish(r, code) }); err != nil {
		return nil, err
	}
	m.current = r

	m.cfg.Logger.Info("check run started",
		zap.String("run_id", r.ID),
		zap.Strings("command", r.Command))
	m.publish(events.RunStarted, r.Info())
	return r, nil
}

// finish persists the output and marks r done.
func (m *Manager) finish(r *Run, code int) {
	// Start holds mu until run.started is published.
	m.mu.Lock()
	m.mu.Unlock()

	rec := runlog.LastRun{
		Stdout:    string(r.Output()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ExitCode:  &code,
	}
	if err := runlog.Write(m.cfg.Root, rec); err != nil {
		m.cfg.Logger.Error("write last run", zap.String("run_id", r.ID), zap.Error(err))
	}
	r.finish(code)

	m.cfg.Logger.Info("check run finished",
		zap.String("run_id", r.ID),
		zap.Int("exit_code", code),
		zap.Duration("elapsed", time.Since(r.StartedAt)))
	m.publish(events.RunFinished, r.Info())
}

func (m *Manager) publish(topic events.Topic, data any) {
	if m.cfg.Bus != nil {
		m.cfg.Bus.Publish(events.Event{Topic: topic, Data: data})
	}
}

// Current returns the most recent run, finished or not, or nil.
func (m *Manager) Current() *Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Get returns the most recent run if its id matches.
func (m *Manager) Get(id string) (*Run, bool) {
	r := m.Current()
	if r == nil || r.ID != id {
		return nil, false
	}
	return r, true
}

// Stop kills the active run, if any, and waits for it to finish or for ctx
// to end.
func (m *Manager) Stop(ctx context.Context) error {
	r := m.Current()
	if r == nil || !r.Running() {
		return nil
	}
	if r.kill != nil {
		r.kill()
	}
	select {
	case <-r.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
