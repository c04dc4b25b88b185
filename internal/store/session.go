package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Session is a long-lived store connection.
type Session interface {
	Begin(ctx context.Context) (Txn, error)
	Close(ctx context.Context) error
}

// Txn is an explicit transaction. Run never returns an error directly; the
// outcome is carried in the Result.
type Txn interface {
	Run(ctx context.Context, stmt Statement) Result
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PgSession holds one PostgreSQL connection for the worker's lifetime. It is
// not safe for concurrent use.
type PgSession struct {
	conn *pgx.Conn
}

// Connect opens a connection using dsn, with database overriding whatever
// database the DSN names.
func Connect(ctx context.Context, dsn, database, appName string) (*PgSession, error) {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if database != "" {
		config.Database = database
	}
	if appName != "" {
		config.RuntimeParams["application_name"] = appName
	}
	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", config.Database, err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PgSession{conn: conn}, nil
}

// Conn exposes the underlying connection for session-scoped queries.
func (s *PgSession) Conn() *pgx.Conn { return s.conn }

func (s *PgSession) Begin(ctx context.Context) (Txn, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTxn{tx: tx}, nil
}

func (s *PgSession) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

type pgTxn struct {
	tx pgx.Tx
}

func (t *pgTxn) Run(ctx context.Context, stmt Statement) Result {
	if !stmt.ReturnsRows() {
		tag, err := t.tx.Exec(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return Failed(err)
		}
		return NoRows(tag)
	}

	rows, err := t.tx.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return Failed(err)
	}
	defer rows.Close()

	var values [][]any
	for rows.Next() {
		v, err := rows.Values()
		if err != nil {
			return Failed(err)
		}
		values = append(values, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Failed(err)
	}
	return Rows(rows.CommandTag().String(), values)
}

func (t *pgTxn) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTxn) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
