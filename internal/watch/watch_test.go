package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchFiresOnceForABurstOfWrites(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	fired := make(chan struct{}, 10)
	go func() {
		_ = Watch(ctx, root, nil, func() { fired <- struct{}{} }, nil)
	}()

	// Give the watcher a moment to register the root directory before
	// writing, then burst several quick writes that should collapse into
	// a single debounced fire.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected onChange to fire after the debounce window")
	}

	select {
	case <-fired:
		t.Fatal("expected the burst of writes to collapse into a single fire")
	case <-time.After(DefaultDebounce + 200*time.Millisecond):
	}
}

func TestWatchSkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "ignored"), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	skip := func(rel string) bool { return rel == "ignored" }
	fired := make(chan struct{}, 10)
	go func() {
		_ = Watch(ctx, root, skip, func() { fired <- struct{}{} }, nil)
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "ignored", "b.txt"), []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
		t.Fatal("expected a write inside an ignored directory not to trigger onChange")
	case <-time.After(DefaultDebounce + 300*time.Millisecond):
	}
}
