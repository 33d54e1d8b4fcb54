package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"shimwrapper-dashboard/events"
	"shimwrapper-dashboard/runlog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitDone(t *testing.T, r *Run) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}
}

func TestStartWritesLastRun(t *testing.T) {
	root := t.TempDir()
	m := NewManagerWithSpawnFn(Config{Root: root, Command: []string{"fake"}}, StaticSpawnFn("Lint...\nok\n", 2, nil))

	r, err := m.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, r)

	info := r.Info()
	if info.Running || info.ExitCode == nil || *info.ExitCode != 2 {
		t.Fatalf("unexpected info after exit: %+v", info)
	}
	rec, err := runlog.Read(root)
	if err != nil || rec == nil {
		t.Fatalf("last run not written: %v", err)
	}
	if rec.Stdout != "Lint...\nok\n" {
		t.Fatalf("unexpected stdout %q", rec.Stdout)
	}
	if rec.ExitCode == nil || *rec.ExitCode != 2 {
		t.Fatalf("unexpected exit code %v", rec.ExitCode)
	}
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	release := make(chan struct{})
	m := NewManagerWithSpawnFn(Config{Root: t.TempDir()}, StaticSpawnFn("", 0, release))

	r, err := m.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := m.Start(); err != ErrRunInProgress {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	close(release)
	waitDone(t, r)

	r2, err := m.Start()
	if err != nil {
		t.Fatalf("Start after finish failed: %v", err)
	}
	waitDone(t, r2)
	if r2.ID == r.ID {
		t.Fatal("expected a fresh run id")
	}
}

func TestStartPublishesEvents(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	m := NewManagerWithSpawnFn(Config{Root: t.TempDir(), Bus: bus}, StaticSpawnFn("x", 0, nil))
	r, err := m.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, r)

	var got []events.Topic
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-ch:
			got = append(got, ev.Topic)
		case <-deadline:
			t.Fatalf("expected run.started and run.finished, got %v", got)
		}
	}
	if got[0] != events.RunStarted || got[1] != events.RunFinished {
		t.Fatalf("unexpected topics %v", got)
	}
}

func TestGet(t *testing.T) {
	m := NewManagerWithSpawnFn(Config{Root: t.TempDir()}, StaticSpawnFn("", 0, nil))
	if _, ok := m.Get("nope"); ok {
		t.Fatal("expected ok=false before any run")
	}
	r, _ := m.Start()
	waitDone(t, r)
	if got, ok := m.Get(r.ID); !ok || got != r {
		t.Fatal("Get did not return the latest run")
	}
}

func TestStop(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	m := NewManagerWithSpawnFn(Config{Root: t.TempDir()}, StaticSpawnFn("", 0, release))

	r, err := m.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if r.Running() {
		t.Fatal("run still running after Stop")
	}
}

func TestPTYRun(t *testing.T) {
	root := t.TempDir()
	m := NewManager(Config{Root: root, Command: []string{"sh", "-c", "echo Lint...; echo oops >&2; exit 3"}})
	r, err := m.Start()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	waitDone(t, r)

	if code := r.Info().ExitCode; code == nil || *code != 3 {
		t.Fatalf("expected exit code 3, got %v", code)
	}
	lg, err := runlog.Load(root, runlog.Markers{{CheckID: "lint", Markers: []string{"Lint..."}}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if lg.Segments["lint"] != "Lint...\noops" {
		t.Fatalf("expected combined stream in lint segment, got %q", lg.Segments["lint"])
	}
}

func TestNoCommand(t *testing.T) {
	m := NewManager(Config{Root: t.TempDir()})
	if _, err := m.Start(); err != ErrNoCommand {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
	if m.Current() != nil {
		t.Fatal("failed start must not become current")
	}
}

func TestSentinelErrorsArePrefixed(t *testing.T) {
	for _, err := range []error{ErrRunInProgress, ErrNoCommand} {
		if !strings.HasPrefix(err.Error(), "runner: ") {
			t.Fatalf("error %q lacks the package prefix", err)
		}
	}
}
