package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"shimwrapper-dashboard/events"
	"shimwrapper-dashboard/runlog"
	"shimwrapper-dashboard/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatcher(t *testing.T, root string) (<-chan events.Event, func()) {
	t.Helper()
	bus := events.NewBus()
	ch, unsubscribe := bus.Subscribe()

	w, err := New(root, bus, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	// Give the watcher time to register its directories.
	time.Sleep(50 * time.Millisecond)

	return ch, func() {
		cancel()
		require.NoError(t, <-done)
		unsubscribe()
	}
}

func nextEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return events.Event{}
	}
}

func TestSettingsFileChange(t *testing.T) {
	root := t.TempDir()
	ch, stop := startWatcher(t, root)
	defer stop()

	path := filepath.Join(root, store.FileName)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	}

	ev := nextEvent(t, ch)
	assert.Equal(t, events.SettingsChanged, ev.Topic)

	// The burst collapses into a single event.
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra event %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLastRunChange(t *testing.T) {
	root := t.TempDir()
	ch, stop := startWatcher(t, root)
	defer stop()

	require.NoError(t, runlog.Write(root, runlog.LastRun{Stdout: "ok"}))
	ev := nextEvent(t, ch)
	assert.Equal(t, events.RunlogUpdated, ev.Topic)
}

func TestUnrelatedFilesIgnored(t *testing.T) {
	root := t.TempDir()
	ch, stop := startWatcher(t, root)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0644))
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
