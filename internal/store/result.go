package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type ResultKind int

const (
	ResultRows ResultKind = iota + 1
	ResultNoRows
	ResultFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultRows:
		return "rows"
	case ResultNoRows:
		return "no_rows"
	case ResultFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of running one Statement.
type Result struct {
	Kind         ResultKind
	Tag          string
	RowsAffected int64
	Rows         [][]any
	// Code is the SQLSTATE of a failed statement, empty if the failure did
	// not come from the server.
	Code string
	Err  error
}

// Rows builds a successful result that carries a result set.
func Rows(tag string, rows [][]any) Result {
	return Result{Kind: ResultRows, Tag: tag, RowsAffected: int64(len(rows)), Rows: rows}
}

// NoRows builds a successful result for a command without a result set.
func NoRows(tag pgconn.CommandTag) Result {
	return Result{Kind: ResultNoRows, Tag: tag.String(), RowsAffected: tag.RowsAffected()}
}

// Failed builds a failed result, extracting the SQLSTATE when present.
func Failed(err error) Result {
	r := Result{Kind: ResultFailed, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		r.Code = pgErr.Code
	}
	return r
}

// Matches reports whether the command tag starts with the expected verb.
func (r Result) Matches(expect string) bool {
	return r.Kind != ResultFailed && (expect == "" || strings.HasPrefix(r.Tag, expect))
}
