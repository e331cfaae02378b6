package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"origamicore/pkg/domain"
	"origamicore/testutil"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	var id uuid.UUID
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		doc, e := tx.CreateDocument(domain.Document{Name: "duplex", Design: testutil.DuplexDesign(2, 8)})
		id = doc.ID
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("unexpected path %s", store.Path())
	}
	_ = store.Close()

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	doc, ok := reloaded.GetDocument(id)
	if !ok {
		t.Fatalf("expected document after reload")
	}
	if doc.Name != "duplex" || doc.Revision != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Design.Strands.Len() != 4 || doc.Design.Helices.Len() != 2 {
		t.Fatalf("design not restored: %d strands, %d helices", doc.Design.Strands.Len(), doc.Design.Helices.Len())
	}
}

func TestSQLiteStoreDeleteRemovesRow(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()
	var id uuid.UUID
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		doc, e := tx.CreateDocument(domain.Document{Name: "gone"})
		id = doc.ID
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteDocument(id)
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty state table, got %d rows", count)
	}
}

func TestSQLiteStoreDefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())
	store, err := NewStore("", nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if store.Path() != defaultPath {
		t.Fatalf("expected default path, got %s", store.Path())
	}
}
