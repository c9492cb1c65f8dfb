package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/dativebase/old/pkg/config"
	"github.com/dativebase/old/pkg/query"
)

// sqliteRegexpDriver is "sqlite3" plus a registered REGEXP(pattern,
// value) scalar function backed by Go's regexp package, so that
// pkg/query's "regex" relation (compiled to "col REGEXP $pattern" by
// query.SQLiteDialect) runs against real SQLite connections. SQLite
// itself has no builtin REGEXP operator; it only recognizes one when
// an application registers it, per mattn/go-sqlite3's documented
// ConnectHook pattern.
const sqliteRegexpDriver = "sqlite3_with_regexp"

var registerSQLiteRegexpDriver = sync.OnceFunc(func() {
	sql.Register(sqliteRegexpDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", func(pattern, value string) (bool, error) {
				return regexp.MatchString(pattern, value)
			}, true)
		},
	})
})

// Open dials the backend named by cfg.Type ("postgres" or "sqlite") and
// returns the pooled *sql.DB alongside the query.Dialect the rest of the
// package (and pkg/query) compiles SQL against.
func Open(ctx context.Context, cfg config.StoreConfig) (*sql.DB, query.Dialect, error) {
	switch cfg.Type {
	case "sqlite":
		registerSQLiteRegexpDriver()
		db, err := sql.Open(sqliteRegexpDriver, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store at %s: %w", cfg.SQLitePath, err)
		}
		db.SetMaxOpenConns(1) // mattn/go-sqlite3 serializes writers anyway
		if err := ping(ctx, db); err != nil {
			return nil, nil, err
		}
		return db, query.SQLiteDialect{}, nil
	case "postgres", "":
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
		if err := ping(ctx, db); err != nil {
			return nil, nil, err
		}
		return db, query.PostgresDialect{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging store: %w", err)
	}
	return nil
}
