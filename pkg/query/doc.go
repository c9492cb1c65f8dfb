// Package query implements the list-form predicate language and its
// translation to SQL: a recursive filter expression compiled against a
// static per-model schema into a SQL WHERE clause, auto-discovering
// joins for cross-model and collection attributes, with RDBMS-aware
// collation.
package query
