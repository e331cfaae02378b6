package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"origamicore/internal/blob/core"
)

func TestCleanKey(t *testing.T) {
	for _, key := range []string{"", "  ", "/abs", "../escape", "a/../../b", `a\b`, "x" + sidecarSuffix} {
		if _, err := cleanKey(key); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
	got, err := cleanKey("designs/./a//1.json")
	if err != nil || got != "designs/a/1.json" {
		t.Fatalf("clean key: %q %v", got, err)
	}
}

func TestPutWritesSidecarWithClock(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store, err := New(t.TempDir(), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := store.Put(context.Background(), "a/b.json", strings.NewReader("abc"), core.PutOptions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !info.LastModified.Equal(fixed) {
		t.Fatalf("expected clock time, got %s", info.LastModified)
	}
	// sha256("abc")
	if info.ETag != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("unexpected etag %s", info.ETag)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "a", "b.json"+sidecarSuffix)); err != nil {
		t.Fatalf("expected sidecar: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(store.Root(), "a"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".put-") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestCorruptSidecarFailsList(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "bad"+sidecarSuffix), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.List(context.Background(), ""); err == nil {
		t.Fatalf("expected corrupt metadata to fail listing")
	}
}

func TestPresignReturnsFileURL(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, err := store.PresignURL(ctx, "missing", core.SignedURLOptions{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Put(ctx, "d/1.json", strings.NewReader("{}"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	u, err := store.PresignURL(ctx, "d/1.json", core.SignedURLOptions{Method: "GET"})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "/d/1.json") {
		t.Fatalf("unexpected url %s", u)
	}
}

func TestCancelledContext(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "x", strings.NewReader(""), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
