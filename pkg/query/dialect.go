package query

import "fmt"

// Dialect abstracts the RDBMS-specific bits of SQL generation: parameter
// placeholder syntax and string collation.
type Dialect interface {
	// Placeholder returns the bound-parameter marker for the given
	// 1-based ordinal ("$1" for Postgres, "?" for SQLite).
	Placeholder(ordinal int) string

	// CollateEquality wraps a column reference so that equality/like/
	// regex comparisons are case-sensitive. Postgres text columns are
	// already case-sensitive by default so this is a no-op there; the
	// hook exists because some MySQL-backed deployments need
	// an explicit BINARY collation.
	CollateEquality(colExpr string) string

	// CollateOrder wraps a column reference for ORDER BY so that
	// sorting is case-insensitive. SQLite's default BINARY collation
	// sorts "Z" before "a"; wrap in NOCASE there.
	CollateOrder(colExpr string) string

	// Name identifies the dialect for diagnostics.
	Name() string

	// RegexpOperator returns the binary SQL operator (or function-style
	// operator) this dialect uses to test a column against a regular
	// expression, for the query compiler's "regex" relation.
	RegexpOperator() string
}

// PostgresDialect targets PostgreSQL via lib/pq.
type PostgresDialect struct{}

func (PostgresDialect) Placeholder(ordinal int) string { return fmt.Sprintf("$%d", ordinal) }
func (PostgresDialect) CollateEquality(col string) string { return col }
func (PostgresDialect) CollateOrder(col string) string { return col }
func (PostgresDialect) Name() string { return "postgres" }
func (PostgresDialect) RegexpOperator() string { return "~" }

// SQLiteDialect targets SQLite via mattn/go-sqlite3. SQLite also caps
// the number of bound parameters per statement, handled in pkg/corpus.
// SQLite has no builtin REGEXP operator; pkg/store registers one as a
// custom scalar function (backed by Go's regexp package) on the
// "sqlite3_with_regexp" driver it opens, so the operator below is
// valid against any connection this package's Store opens.
type SQLiteDialect struct{}

func (SQLiteDialect) Placeholder(ordinal int) string { return "?" }
func (SQLiteDialect) CollateEquality(col string) string { return col }
func (SQLiteDialect) CollateOrder(col string) string { return col + " COLLATE NOCASE" }
func (SQLiteDialect) Name() string { return "sqlite" }
func (SQLiteDialect) RegexpOperator() string { return "REGEXP" }

// SQLiteMaxParams is SQLite's default host-parameter cap, used by
// pkg/corpus to batch large id-list queries.
const SQLiteMaxParams = 500
