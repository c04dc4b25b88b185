package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TableName is the heartbeat table every deployment must provision.
const TableName = "streaming_lag_data"

type StatementKind int

const (
	StmtCountTables StatementKind = iota + 1
	StmtClear
	StmtSeed
	StmtTouch
	StmtRelaxDurability
)

func (k StatementKind) String() string {
	switch k {
	case StmtCountTables:
		return "count_tables"
	case StmtClear:
		return "clear"
	case StmtSeed:
		return "seed"
	case StmtTouch:
		return "touch"
	case StmtRelaxDurability:
		return "relax_durability"
	}
	return fmt.Sprintf("StatementKind(%d)", int(k))
}

// Statement is one SQL command plus the command tag a successful run yields.
type Statement struct {
	Kind   StatementKind
	SQL    string
	Args   []any
	Expect string
}

// ReturnsRows is true for statements whose result set the caller reads.
func (s Statement) ReturnsRows() bool {
	return s.Kind == StmtCountTables
}

// QualifiedTable is the quoted schema-qualified heartbeat table name.
func QualifiedTable(schema string) string {
	return pgx.Identifier{schema, TableName}.Sanitize()
}

func CountTables(schema string) Statement {
	return Statement{
		Kind: StmtCountTables,
		SQL: `SELECT count(1)
  FROM pg_catalog.pg_class c
  JOIN pg_catalog.pg_namespace n ON c.relnamespace = n.oid
 WHERE n.nspname = $1
   AND c.relname = $2
   AND c.relkind = 'r'`,
		Args:   []any{schema, TableName},
		Expect: "SELECT",
	}
}

func Clear(schema string) Statement {
	return Statement{Kind: StmtClear, SQL: "DELETE FROM " + QualifiedTable(schema), Expect: "DELETE"}
}

func Seed(schema string) Statement {
	return Statement{
		Kind:   StmtSeed,
		SQL:    "INSERT INTO " + QualifiedTable(schema) + " (tstmp) SELECT now()",
		Expect: "INSERT",
	}
}

func Touch(schema string) Statement {
	return Statement{
		Kind:   StmtTouch,
		SQL:    "UPDATE " + QualifiedTable(schema) + " SET tstmp = now()",
		Expect: "UPDATE",
	}
}

// RelaxDurability turns off synchronous commit for the session. The heartbeat
// is a monitoring signal, so commit-ack latency must not show up as lag.
func RelaxDurability() Statement {
	return Statement{Kind: StmtRelaxDurability, SQL: "SET synchronous_commit TO off", Expect: "SET"}
}
