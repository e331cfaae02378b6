package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	insert := "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{"one", "two"} {
		if _, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Value: "k"}, {Value: []byte(payload)}}); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if len(conn.Tables["state"]) != 1 {
		t.Fatalf("expected upsert to keep one row, got %v", conn.Tables["state"])
	}

	rows, err := conn.QueryContext(ctx, "SELECT bucket, payload FROM state", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "k" || string(dest[1].([]byte)) != "two" {
		t.Fatalf("unexpected row values: %v", dest)
	}

	if _, err := conn.ExecContext(ctx, "DELETE FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "k"}}); err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if len(conn.Rows("state")) != 0 {
		t.Fatalf("expected row deleted")
	}
}

func TestStubFailures(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.FailPing, conn.FailExec, conn.FailBegin = true, true, true
	if conn.Ping(ctx) == nil {
		t.Fatalf("expected ping failure")
	}
	if _, err := conn.ExecContext(ctx, "CREATE TABLE x", nil); err == nil {
		t.Fatalf("expected exec failure")
	}
	if _, err := conn.Begin(); err == nil {
		t.Fatalf("expected begin failure")
	}
	if _, err := conn.QueryContext(ctx, "UPDATE x", nil); err == nil {
		t.Fatalf("expected parse failure")
	}
}
