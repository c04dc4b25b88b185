package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/core"
	"github.com/lzjever/streaming-lag/internal/store"
)

const missingTableHint = `"schema" must match the schema the streaming_lag_data table was created in`

// Validate confirms the heartbeat table exists in the client's schema and
// resets it to exactly one row stamped with now(), in a single transaction.
func Validate(ctx context.Context, c *store.Client, log *zap.Logger) error {
	err := c.InTx(ctx, "verifying heartbeat table", func(tx store.Txn) error {
		n, err := c.CountHeartbeatTables(ctx, tx)
		if err != nil {
			return err
		}
		switch {
		case n == 0:
			return core.Fatal(core.ErrMissingTable,
				fmt.Sprintf("table %s not found", c.Table()), nil).WithHint(missingTableHint)
		case n > 1:
			return core.Fatal(core.ErrInvariant,
				fmt.Sprintf("found %d tables named %s", n, c.Table()), nil)
		}

		if err := c.ClearHeartbeat(ctx, tx); err != nil {
			return err
		}
		return c.SeedHeartbeat(ctx, tx)
	})
	if err != nil {
		return err
	}

	log.Info("initialized, database objects validated", zap.String("table", c.Table()))
	return nil
}
