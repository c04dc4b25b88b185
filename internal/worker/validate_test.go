package worker

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/core"
	"github.com/lzjever/streaming-lag/internal/store"
	"github.com/lzjever/streaming-lag/internal/store/storetest"
)

func TestValidate_ResetsToOneRow(t *testing.T) {
	db := storetest.New()
	db.SetRows(4, time.Unix(0, 0))
	c := store.NewClient(db, "public", zap.NewNop())

	require.NoError(t, Validate(context.Background(), c, zap.NewNop()))

	require.Len(t, db.Rows(), 1)
	assert.Equal(t, []store.StatementKind{store.StmtCountTables, store.StmtClear, store.StmtSeed}, db.Executed())
	assert.Equal(t, 1, db.Commits(), "validation runs in a single transaction")
}

func TestValidate_DuplicateTables(t *testing.T) {
	db := storetest.New()
	res := store.Rows("SELECT 1", [][]any{{int64(2)}})
	db.CountResult = &res
	c := store.NewClient(db, "public", zap.NewNop())

	err := Validate(context.Background(), c, zap.NewNop())
	fe, ok := core.AsFatal(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrInvariant, fe.Code)
	assert.Zero(t, db.Count(store.StmtClear))
}

func TestValidate_NullCount(t *testing.T) {
	db := storetest.New()
	res := store.Rows("SELECT 1", [][]any{{nil}})
	db.CountResult = &res
	c := store.NewClient(db, "public", zap.NewNop())

	fe, ok := core.AsFatal(Validate(context.Background(), c, zap.NewNop()))
	require.True(t, ok)
	assert.Equal(t, core.ErrInvariant, fe.Code)
}

func TestValidate_SeedFailureRollsBack(t *testing.T) {
	db := storetest.New()
	stamp := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	db.SetRows(2, stamp)
	db.Fail(store.StmtSeed, &pgconn.PgError{Code: "23502", Message: "null value in column"})
	c := store.NewClient(db, "public", zap.NewNop())

	fe, ok := core.AsFatal(Validate(context.Background(), c, zap.NewNop()))
	require.True(t, ok)
	assert.Equal(t, core.ErrStore, fe.Code)
	assert.Equal(t, "23502", fe.SQLState)

	assert.Equal(t, []time.Time{stamp, stamp}, db.Rows(), "a failed validation leaves the table untouched")
	assert.Zero(t, db.Commits())
	assert.Equal(t, 1, db.Rollbacks())
}

func TestValidate_OtherSchema(t *testing.T) {
	db := storetest.New()
	db.TableExists = false
	c := store.NewClient(db, "metrics", zap.NewNop())

	fe, ok := core.AsFatal(Validate(context.Background(), c, zap.NewNop()))
	require.True(t, ok)
	assert.Equal(t, core.ErrMissingTable, fe.Code)
	assert.Contains(t, fe.Message, `"metrics"."streaming_lag_data"`)
	assert.Equal(t, missingTableHint, fe.Hint)
}
