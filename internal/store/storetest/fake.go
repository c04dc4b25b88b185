// Package storetest provides an in-memory heartbeat store for tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lzjever/streaming-lag/internal/store"
)

// ErrUndefinedTable mimics SQLSTATE 42P01.
var ErrUndefinedTable = &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}

// DB is an in-memory stand-in for the heartbeat table. Transactions work on a
// private copy of the rows and publish it on commit. now() is the time the
// transaction began, as in PostgreSQL.
type DB struct {
	mu sync.Mutex

	TableExists bool
	Now         func() time.Time
	// CountResult, when set, replaces the result of the existence check.
	CountResult *store.Result
	// BeginErr, when set, fails every Begin.
	BeginErr error
	// OnRun is called before each statement runs, outside the lock.
	OnRun func(store.StatementKind)

	rows      []time.Time
	failures  map[store.StatementKind]error
	executed  []store.StatementKind
	commits   int
	rollbacks int
	relaxed   bool
	closed    bool
}

func New() *DB {
	return &DB{
		TableExists: true,
		Now:         time.Now,
		failures:    make(map[store.StatementKind]error),
	}
}

// SetRows replaces the table contents with n rows stamped at ts.
func (d *DB) SetRows(n int, ts time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = make([]time.Time, n)
	for i := range d.rows {
		d.rows[i] = ts
	}
}

// Fail makes every statement of kind fail with err.
func (d *DB) Fail(kind store.StatementKind, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[kind] = err
}

func (d *DB) Rows() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.rows...)
}

func (d *DB) Executed() []store.StatementKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]store.StatementKind(nil), d.executed...)
}

// Count is how many statements of kind were run, committed or not.
func (d *DB) Count(kind store.StatementKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, k := range d.executed {
		if k == kind {
			n++
		}
	}
	return n
}

func (d *DB) Commits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commits
}

func (d *DB) Rollbacks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rollbacks
}

// Relaxed reports whether synchronous commit was committed off.
func (d *DB) Relaxed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.relaxed
}

func (d *DB) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *DB) Begin(ctx context.Context) (store.Txn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.BeginErr != nil {
		return nil, d.BeginErr
	}
	if d.closed {
		return nil, errors.New("conn closed")
	}
	return &txn{db: d, now: d.Now(), rows: append([]time.Time(nil), d.rows...)}, nil
}

func (d *DB) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

type txn struct {
	db    *DB
	now   time.Time
	rows  []time.Time
	relax bool
	done  bool
}

func (t *txn) Run(ctx context.Context, stmt store.Statement) store.Result {
	if hook := t.db.OnRun; hook != nil {
		hook(stmt.Kind)
	}

	d := t.db
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executed = append(d.executed, stmt.Kind)

	if err := d.failures[stmt.Kind]; err != nil {
		return store.Failed(err)
	}

	switch stmt.Kind {
	case store.StmtCountTables:
		if d.CountResult != nil {
			return *d.CountResult
		}
		var n int64
		if d.TableExists {
			n = 1
		}
		return store.Rows("SELECT 1", [][]any{{n}})
	case store.StmtRelaxDurability:
		t.relax = true
		return noRows("SET", 0)
	}

	if !d.TableExists {
		return store.Failed(ErrUndefinedTable)
	}

	switch stmt.Kind {
	case store.StmtClear:
		n := len(t.rows)
		t.rows = nil
		return noRows(fmt.Sprintf("DELETE %d", n), int64(n))
	case store.StmtSeed:
		t.rows = append(t.rows, t.now)
		return noRows("INSERT 0 1", 1)
	case store.StmtTouch:
		for i := range t.rows {
			t.rows[i] = t.now
		}
		return noRows(fmt.Sprintf("UPDATE %d", len(t.rows)), int64(len(t.rows)))
	}
	return store.Failed(fmt.Errorf("storetest: unsupported statement %s", stmt.Kind))
}

func (t *txn) Commit(ctx context.Context) error {
	d := t.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if t.done {
		return errors.New("tx is closed")
	}
	t.done = true
	d.rows = t.rows
	if t.relax {
		d.relaxed = true
	}
	d.commits++
	return nil
}

func (t *txn) Rollback(ctx context.Context) error {
	d := t.db
	d.mu.Lock()
	defer d.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	d.rollbacks++
	return nil
}

func noRows(tag string, n int64) store.Result {
	return store.Result{Kind: store.ResultNoRows, Tag: tag, RowsAffected: n}
}
