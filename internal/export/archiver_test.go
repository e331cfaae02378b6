package export

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"origamicore/internal/blob"
	"origamicore/internal/core"
	"origamicore/pkg/domain"
	"origamicore/testutil"
)

func TestKeyRoundTrip(t *testing.T) {
	id := uuid.New()
	key := Key(id, 12)
	if key != "designs/"+id.String()+"/12.json" {
		t.Fatalf("unexpected key %s", key)
	}
	gotID, rev, ok := parseKey(key)
	if !ok || gotID != id || rev != 12 {
		t.Fatalf("parse %s: %v %d %v", key, gotID, rev, ok)
	}
	for _, bad := range []string{"other/x", "designs/not-a-uuid/1.json", "designs/" + id.String() + "/0.json", "designs/" + id.String() + "/1.txt", "designs/" + id.String()} {
		if _, _, ok := parseKey(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestArchiveRestoreThroughService(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	archiver := NewArchiver(blob.NewMemory(), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())

	doc, _, err := svc.CreateDocument(ctx, "tile", testutil.DuplexDesign(2, 16))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first, err := archiver.Archive(ctx, doc)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if first.Revision != 1 || first.Name != "tile" || first.Key != Key(doc.ID, 1) {
		t.Fatalf("unexpected revision %+v", first)
	}
	again, err := archiver.Archive(ctx, doc)
	if err != nil || again.Key != first.Key {
		t.Fatalf("archiving the same revision must be idempotent: %+v %v", again, err)
	}

	cut, _, err := svc.ApplyOperations(ctx, doc.ID, []core.Operation{
		core.Cut{Strand: 0, Nucl: testutil.Nucl(0, 7, true)},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := archiver.Archive(ctx, cut); err != nil {
		t.Fatalf("archive second: %v", err)
	}

	revs, err := archiver.Revisions(ctx, doc.ID)
	if err != nil || len(revs) != 2 || revs[0].Revision != 1 || revs[1].Revision != 2 {
		t.Fatalf("unexpected revisions %+v (%v)", revs, err)
	}

	latest, err := archiver.Load(ctx, doc.ID, 0)
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if latest.Revision != 2 || latest.Design.Strands.Len() != 5 {
		t.Fatalf("unexpected latest %d strands=%d", latest.Revision, latest.Design.Strands.Len())
	}

	restored, err := archiver.Restore(ctx, svc, doc.ID, 1)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Revision != 3 || restored.Design.Strands.Len() != 4 {
		t.Fatalf("restore must write revision 1 back as a new revision, got %d with %d strands", restored.Revision, restored.Design.Strands.Len())
	}
	if !strings.Contains(logs.String(), "restored design") {
		t.Fatalf("expected restore to be logged, got %s", logs.String())
	}
}

func TestRestoreDeletedDocument(t *testing.T) {
	ctx := context.Background()
	archiver := NewArchiver(blob.NewMockS3ForTests())
	svc := core.NewInMemoryService(nil)
	doc, _, err := svc.CreateDocument(ctx, "gone", testutil.DuplexDesign(1, 8))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := archiver.Archive(ctx, doc); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := svc.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	restored, err := archiver.Restore(ctx, svc, doc.ID, 0)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.ID != doc.ID || restored.Name != "gone" {
		t.Fatalf("unexpected restored document %+v", restored)
	}
}

func TestArchiveErrors(t *testing.T) {
	ctx := context.Background()
	archiver := NewArchiver(blob.NewMemory())
	if _, err := archiver.Archive(ctx, domain.Document{}); err == nil {
		t.Fatalf("expected incomplete document to be rejected")
	}
	if _, err := archiver.Load(ctx, uuid.New(), 0); !errors.Is(err, ErrNoRevisions) {
		t.Fatalf("expected ErrNoRevisions, got %v", err)
	}
	if _, err := archiver.Load(ctx, uuid.New(), 3); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected blob.ErrNotFound, got %v", err)
	}
	if _, err := archiver.URL(ctx, uuid.New(), 1, time.Minute); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("memory archive must not hand out URLs, got %v", err)
	}
}

func TestAllSkipsForeignKeys(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	archiver := NewArchiver(store)
	if _, err := store.Put(ctx, "designs/readme.txt", strings.NewReader("x"), blob.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	a, b := uuid.New(), uuid.New()
	for _, doc := range []domain.Document{
		{ID: a, Revision: 2, Name: "a", Design: domain.NewDesign()},
		{ID: b, Revision: 1, Name: "b", Design: domain.NewDesign()},
		{ID: a, Revision: 10, Name: "a", Design: domain.NewDesign()},
	} {
		if _, err := archiver.Archive(ctx, doc); err != nil {
			t.Fatalf("archive: %v", err)
		}
	}
	all, err := archiver.All(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected three revisions, got %+v (%v)", all, err)
	}
	revs, _ := archiver.Revisions(ctx, a)
	if len(revs) != 2 || revs[0].Revision != 2 || revs[1].Revision != 10 {
		t.Fatalf("revisions must sort numerically, got %+v", revs)
	}
}
