package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"origamicore/internal/infra/persistence/postgres/testutil"
	"origamicore/pkg/domain"
	fixtures "origamicore/testutil"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		if driver != defaultDriver || dsn != defaultDSN {
			t.Fatalf("unexpected open(%q, %q)", driver, dsn)
		}
		return db, nil
	})
	defer restore()
	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreCreatesStateTable(t *testing.T) {
	_, conn := openStub(t)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsAndReloads(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	var id uuid.UUID
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		doc, err := tx.CreateDocument(domain.Document{Name: "duplex", Design: fixtures.DuplexDesign(1, 6)})
		id = doc.ID
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rows := conn.Rows("state")
	if len(rows) != 1 || rows[0][0] != id.String() {
		t.Fatalf("expected one persisted row, got %v", rows)
	}
	var persisted domain.Document
	if err := json.Unmarshal(rows[0][1].([]byte), &persisted); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if persisted.Design.Strands.Len() != 2 {
		t.Fatalf("expected strands in payload")
	}

	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return store.DB(), nil })
	defer restore()
	reloaded, err := NewStore("postgres://elsewhere", nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := reloaded.GetDocument(id); !ok {
		t.Fatalf("expected document hydrated from state table")
	}

	if _, err := reloaded.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteDocument(id)
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(conn.Rows("state")) != 0 {
		t.Fatalf("expected row removed")
	}
}

func TestNewStoreErrors(t *testing.T) {
	cases := []struct {
		name  string
		setup func(*testutil.StubConn)
		open  error
	}{
		{name: "open", open: errors.New("dial")},
		{name: "ping", setup: func(c *testutil.StubConn) { c.FailPing = true }},
		{name: "ddl", setup: func(c *testutil.StubConn) { c.FailExec = true }},
		{name: "rows", setup: func(c *testutil.StubConn) { c.RowsErr = errors.New("broken") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, conn := testutil.NewStubDB()
			if tc.setup != nil {
				tc.setup(conn)
			}
			restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, tc.open })
			defer restore()
			if _, err := NewStore("dsn", nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPersistFailuresSurface(t *testing.T) {
	store, conn := openStub(t)
	conn.FailCommit = true
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateDocument(domain.Document{Name: "x"})
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit failure, got %v", err)
	}
	conn.FailCommit = false
	conn.FailBegin = true
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateDocument(domain.Document{Name: "y"})
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "begin") {
		t.Fatalf("expected begin failure, got %v", err)
	}
}
