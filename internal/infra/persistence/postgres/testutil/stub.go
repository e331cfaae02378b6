// Package testutil provides a stub database/sql driver for postgres store
// tests. It understands the handful of statements the store issues against
// its key/value state table.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync/atomic"
)

var stubSeq atomic.Int64

// StubConn records statements and keeps the rows of every table keyed by
// their first column.
type StubConn struct {
	Execs      []string
	Tables     map[string]map[string][]driver.Value
	FailPing   bool
	FailExec   bool
	FailBegin  bool
	FailCommit bool
	RowsErr    error
}

// NewStubDB registers a fresh driver instance and opens a sql.DB on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string]map[string][]driver.Value)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Rows returns the rows of table ordered by key.
func (c *StubConn) Rows(table string) [][]driver.Value {
	rows := c.Tables[table]
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([][]driver.Value, 0, len(keys))
	for _, k := range keys {
		out = append(out, rows[k])
	}
	return out
}

type stubDriver struct {
	conn *StubConn
}

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return errors.New("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, errors.New("begin fail")
	}
	return stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext for CREATE, INSERT and DELETE.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, errors.New("exec fail")
	}
	fields := strings.Fields(strings.ToLower(query))
	switch {
	case len(fields) > 3 && fields[0] == "insert" && fields[1] == "into":
		table := strings.SplitN(fields[2], "(", 2)[0]
		if len(args) == 0 {
			return nil, fmt.Errorf("insert into %s without values", table)
		}
		row := make([]driver.Value, len(args))
		for i, a := range args {
			row[i] = a.Value
		}
		if c.Tables[table] == nil {
			c.Tables[table] = make(map[string][]driver.Value)
		}
		c.Tables[table][fmt.Sprint(row[0])] = row
		return driver.RowsAffected(1), nil
	case len(fields) > 2 && fields[0] == "delete" && fields[1] == "from":
		if len(args) == 0 {
			return nil, fmt.Errorf("delete from %s without key", fields[2])
		}
		delete(c.Tables[fields[2]], fmt.Sprint(args[0].Value))
		return driver.RowsAffected(1), nil
	}
	return driver.RowsAffected(0), nil
}

// QueryContext implements driver.QueryerContext for "SELECT cols FROM table".
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	lower := strings.ToLower(query)
	from := strings.Index(lower, " from ")
	if !strings.HasPrefix(lower, "select ") || from == -1 {
		return nil, fmt.Errorf("cannot parse select: %s", query)
	}
	var cols []string
	for _, col := range strings.Split(query[len("select "):from], ",") {
		cols = append(cols, strings.TrimSpace(col))
	}
	table := strings.Fields(lower[from+len(" from "):])[0]
	return &stubRows{cols: cols, rows: c.Rows(table), err: c.RowsErr}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t stubTx) Commit() error {
	if t.conn.FailCommit {
		return errors.New("commit fail")
	}
	return nil
}

func (stubTx) Rollback() error { return nil }

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
