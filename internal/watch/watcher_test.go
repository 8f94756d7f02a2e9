package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collect(t *testing.T, paths <-chan string, n int) map[string]bool {
	t.Helper()
	got := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case p, ok := <-paths:
			if !ok {
				t.Fatalf("channel closed with %d of %d paths", len(got), n)
			}
			got[filepath.Base(p)] = true
		case <-deadline:
			t.Fatalf("timed out with %d of %d paths: %v", len(got), n, got)
		}
	}
	return got
}

func TestStartEmitsNewInvoiceFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _, err := Start(ctx, Config{Root: dir}, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "scan.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := collect(t, paths, 2)
	if !got["scan.png"] || !got["doc.pdf"] {
		t.Fatalf("got %v, want scan.png and doc.pdf", got)
	}
	if got["notes.txt"] {
		t.Fatal("non-invoice file emitted")
	}
}

func TestStartInitialScanEmitsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _, err := Start(ctx, Config{Root: dir, InitialScan: true}, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got := collect(t, paths, 1)
	if !got["old.jpg"] {
		t.Fatalf("got %v, want old.jpg", got)
	}
}

func TestStartDebounceCoalescesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _, err := Start(ctx, Config{Root: dir, Debounce: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	target := filepath.Join(dir, "scan.tif")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("chunk"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := collect(t, paths, 1)
	if !got["scan.tif"] {
		t.Fatalf("got %v", got)
	}
	select {
	case p, ok := <-paths:
		if ok {
			t.Fatalf("burst produced a second emission: %s", p)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStartIgnoresFilesMovedAway(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _, err := Start(ctx, Config{Root: dir}, nil)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	target := filepath.Join(dir, "scan.png")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	collect(t, paths, 1)

	// let the create/write burst settle before moving the file out
	quiet := time.After(200 * time.Millisecond)
drain:
	for {
		select {
		case <-paths:
		case <-quiet:
			break drain
		}
	}

	if err := os.Rename(target, filepath.Join(t.TempDir(), "scan.png")); err != nil {
		t.Fatal(err)
	}
	select {
	case p, ok := <-paths:
		if ok {
			t.Fatalf("moved-away file emitted: %s", p)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestStartRequiresRoot(t *testing.T) {
	if _, _, err := Start(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error for empty root")
	}
}
