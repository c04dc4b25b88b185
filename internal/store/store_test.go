package store

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("lag"),
		postgres.WithUsername("lag"),
		postgres.WithPassword("lag_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	session, err := Connect(ctx, connStr, "lag", "streaming_lag_test")
	if err != nil {
		t.Fatalf("failed to connect: %s", err)
	}
	defer session.Close(ctx)

	_, err = session.Conn().Exec(ctx, `
		CREATE SCHEMA lag;
		CREATE TABLE lag.streaming_lag_data (tstmp TIMESTAMPTZ);
		INSERT INTO lag.streaming_lag_data (tstmp) VALUES (now()), (now()), (now());
	`)
	if err != nil {
		t.Fatalf("failed to provision heartbeat table: %s", err)
	}

	client := NewClient(session, "lag", zap.NewNop())

	t.Run("CountHeartbeatTables", func(t *testing.T) {
		var n int64
		err := client.InTx(ctx, "count", func(tx Txn) error {
			var err error
			n, err = client.CountHeartbeatTables(ctx, tx)
			return err
		})
		if err != nil {
			t.Fatalf("count failed: %s", err)
		}
		if n != 1 {
			t.Errorf("expected 1 table, got %d", n)
		}

		other := NewClient(session, "public", zap.NewNop())
		err = other.InTx(ctx, "count", func(tx Txn) error {
			var err error
			n, err = other.CountHeartbeatTables(ctx, tx)
			return err
		})
		if err != nil {
			t.Fatalf("count failed: %s", err)
		}
		if n != 0 {
			t.Errorf("expected no table in public, got %d", n)
		}
	})

	t.Run("ClearAndSeed", func(t *testing.T) {
		err := client.InTx(ctx, "reset", func(tx Txn) error {
			if err := client.ClearHeartbeat(ctx, tx); err != nil {
				return err
			}
			return client.SeedHeartbeat(ctx, tx)
		})
		if err != nil {
			t.Fatalf("reset failed: %s", err)
		}

		var rows int
		if err := session.Conn().QueryRow(ctx, "SELECT count(*) FROM lag.streaming_lag_data").Scan(&rows); err != nil {
			t.Fatalf("count rows: %s", err)
		}
		if rows != 1 {
			t.Errorf("expected exactly 1 row, got %d", rows)
		}
	})

	t.Run("TouchHeartbeat", func(t *testing.T) {
		var before time.Time
		if err := session.Conn().QueryRow(ctx, "SELECT tstmp FROM lag.streaming_lag_data").Scan(&before); err != nil {
			t.Fatalf("read heartbeat: %s", err)
		}

		time.Sleep(10 * time.Millisecond)
		err := client.InTx(ctx, "update heartbeat", func(tx Txn) error {
			return client.TouchHeartbeat(ctx, tx)
		})
		if err != nil {
			t.Fatalf("touch failed: %s", err)
		}

		var after time.Time
		if err := session.Conn().QueryRow(ctx, "SELECT tstmp FROM lag.streaming_lag_data").Scan(&after); err != nil {
			t.Fatalf("read heartbeat: %s", err)
		}
		if !after.After(before) {
			t.Errorf("expected heartbeat to advance: before=%s after=%s", before, after)
		}
	})

	t.Run("RelaxDurability", func(t *testing.T) {
		err := client.InTx(ctx, "relax", func(tx Txn) error {
			return client.RelaxDurability(ctx, tx)
		})
		if err != nil {
			t.Fatalf("relax failed: %s", err)
		}

		var setting string
		if err := session.Conn().QueryRow(ctx, "SHOW synchronous_commit").Scan(&setting); err != nil {
			t.Fatalf("show synchronous_commit: %s", err)
		}
		if setting != "off" {
			t.Errorf("expected synchronous_commit off for the session, got %s", setting)
		}
	})
}
