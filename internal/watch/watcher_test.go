package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var reloads atomic.Int32
	w, err := New(Config{Dir: dir, Extensions: []string{".md", ".mdx"}, Debounce: 100 * time.Millisecond},
		func(context.Context) error {
			reloads.Add(1)
			return nil
		})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("second start should be a no-op: %v", err)
	}

	path := filepath.Join(dir, "post.md")
	for i := 0; i < 5; i++ {
		writeFile(t, path, "---\ntitle: Draft\n---\nbody")
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, 2*time.Second, func() bool { return reloads.Load() >= 1 })
	time.Sleep(250 * time.Millisecond)
	if got := reloads.Load(); got != 1 {
		t.Fatalf("expected a single reload for the burst, got %d", got)
	}

	w.Stop()
	w.Stop()

	stats := w.Stats()
	if stats.Reloads != 1 || stats.Events == 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var reloads atomic.Int32
	w, err := New(Config{Dir: dir, Extensions: []string{".md"}, Debounce: 20 * time.Millisecond},
		func(context.Context) error {
			reloads.Add(1)
			return nil
		})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	time.Sleep(200 * time.Millisecond)
	if got := reloads.Load(); got != 0 {
		t.Fatalf("expected no reload, got %d", got)
	}
}

func TestWatcherWatchesIndividualFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	contentDir := t.TempDir()
	dataDir := t.TempDir()
	resources := filepath.Join(dataDir, "resources.json")
	writeFile(t, resources, `{"categories":[]}`)

	var reloads atomic.Int32
	w, err := New(Config{Dir: contentDir, Files: []string{resources}, Debounce: 20 * time.Millisecond},
		func(context.Context) error {
			reloads.Add(1)
			return nil
		})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(dataDir, "other.json"), "{}")
	writeFile(t, resources, `{"categories":[{"slug":"x"}]}`)
	waitFor(t, 2*time.Second, func() bool { return reloads.Load() == 1 })
}

func TestWatcherStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := New(Config{Dir: t.TempDir()}, func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after cancellation")
	}
	w.Stop()
	if err := w.Start(context.Background()); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(Config{Dir: filepath.Join(t.TempDir(), "missing")}, func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("a missing directory should not fail start: %v", err)
	}
	w.Stop()
}

func TestNewRequiresReload(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Fatal("expected an error without a reload func")
	}
}
