package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"origamicore/internal/blob/core"
)

func TestStoreIsolatesCallers(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := New(func() time.Time { return fixed })
	ctx := context.Background()
	md := map[string]string{"k": "v"}
	if _, err := store.Put(ctx, "a", strings.NewReader("data"), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	md["k"] = "changed"

	info, rc, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "data" || info.Metadata["k"] != "v" || !info.LastModified.Equal(fixed) {
		t.Fatalf("unexpected blob %q %+v", data, info)
	}
	info.Metadata["k"] = "mutated"
	head, _ := store.Head(ctx, "a")
	if head.Metadata["k"] != "v" {
		t.Fatalf("returned metadata must be a copy")
	}
}

func TestStoreRejectsEmptyKeyAndPresign(t *testing.T) {
	store := New(nil)
	ctx := context.Background()
	if _, err := store.Put(ctx, "", strings.NewReader(""), core.PutOptions{}); err == nil {
		t.Fatalf("expected empty key error")
	}
	if _, err := store.PresignURL(ctx, "a", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if store.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}
