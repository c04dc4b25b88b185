package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lzjever/streaming-lag/internal/core"
)

// Client runs the heartbeat statements for one schema. Every failure it
// returns is a *core.FatalError.
type Client struct {
	session Session
	schema  string
	log     *zap.Logger
}

func NewClient(session Session, schema string, log *zap.Logger) *Client {
	return &Client{session: session, schema: schema, log: log}
}

// Table is the quoted heartbeat table name.
func (c *Client) Table() string { return QualifiedTable(c.schema) }

// InTx runs fn inside one transaction and commits it. The transaction is
// rolled back if fn fails.
func (c *Client) InTx(ctx context.Context, activity string, fn func(Txn) error) error {
	c.log.Debug("transaction start", zap.String("activity", activity))

	tx, err := c.session.Begin(ctx)
	if err != nil {
		return fatalFrom(fmt.Sprintf("%s: cannot begin transaction", activity), Failed(err))
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fatalFrom(fmt.Sprintf("%s: cannot commit", activity), Failed(err))
	}

	c.log.Debug("transaction committed", zap.String("activity", activity))
	return nil
}

// CountHeartbeatTables returns how many ordinary tables named
// streaming_lag_data exist in the schema: 0 or 1.
func (c *Client) CountHeartbeatTables(ctx context.Context, tx Txn) (int64, error) {
	res, err := c.exec(ctx, tx, CountTables(c.schema))
	if err != nil {
		return 0, err
	}
	if len(res.Rows) != 1 {
		return 0, core.Fatal(core.ErrInvariant,
			fmt.Sprintf("got %d rows from a 'SELECT count()'", len(res.Rows)), nil)
	}
	if len(res.Rows[0]) != 1 || res.Rows[0][0] == nil {
		return 0, core.Fatal(core.ErrInvariant, "'SELECT count()' returns NULL", nil)
	}
	switch n := res.Rows[0][0].(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	default:
		return 0, core.Fatal(core.ErrInvariant,
			fmt.Sprintf("'SELECT count()' returned %T", res.Rows[0][0]), nil)
	}
}

// ClearHeartbeat deletes every row of the heartbeat table.
func (c *Client) ClearHeartbeat(ctx context.Context, tx Txn) error {
	_, err := c.exec(ctx, tx, Clear(c.schema))
	return err
}

// SeedHeartbeat inserts the single heartbeat row stamped with now().
func (c *Client) SeedHeartbeat(ctx context.Context, tx Txn) error {
	_, err := c.exec(ctx, tx, Seed(c.schema))
	return err
}

// TouchHeartbeat sets the heartbeat row's timestamp to now().
func (c *Client) TouchHeartbeat(ctx context.Context, tx Txn) error {
	_, err := c.exec(ctx, tx, Touch(c.schema))
	return err
}

// RelaxDurability disables synchronous commit for the rest of the session.
func (c *Client) RelaxDurability(ctx context.Context, tx Txn) error {
	_, err := c.exec(ctx, tx, RelaxDurability())
	if err != nil {
		if fe, ok := core.AsFatal(err); ok {
			fe.Message = "cannot SET synchronous_commit TO off: " + fe.Message
		}
	}
	return err
}

func (c *Client) exec(ctx context.Context, tx Txn, stmt Statement) (Result, error) {
	res := tx.Run(ctx, stmt)
	if res.Kind == ResultFailed {
		return res, fatalFrom(stmt.Kind.String()+" failed", res)
	}
	if !res.Matches(stmt.Expect) {
		return res, core.Fatal(core.ErrStore,
			fmt.Sprintf("%s: unexpected command tag %q, want %s", stmt.Kind, res.Tag, stmt.Expect), nil)
	}
	return res, nil
}

func fatalFrom(msg string, res Result) *core.FatalError {
	fe := core.Fatal(core.ErrStore, msg, res.Err)
	fe.SQLState = res.Code
	return fe
}
