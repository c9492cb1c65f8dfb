package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/dativebase/old/pkg/backup"
	"github.com/dativebase/old/pkg/query"
)

var tracer = otel.Tracer("github.com/dativebase/old/pkg/store")

// Store bundles the pooled connection and dialect every resource-specific
// sub-store embeds.
type Store struct {
	db      *sql.DB
	dialect query.Dialect
	clock   backup.Clock
}

// New builds a Store. Pass backup.RealClock in production; tests supply
// a fixed clock.
func New(db *sql.DB, dialect query.Dialect, clock backup.Clock) *Store {
	if clock == nil {
		clock = backup.RealClock
	}
	return &Store{db: db, dialect: dialect, clock: clock}
}

// ph renders the dialect's placeholder for 1-based ordinal n.
func (s *Store) ph(n int) string { return s.dialect.Placeholder(n) }

// backupTables lists every *_backups table written by backup-on-mutate
// (§4.11), pruned together by the scheduled retention sweep.
var backupTables = []string{
	"forms_backups",
	"collections_backups",
	"corpora_backups",
	"phonologies_backups",
	"morphologies_backups",
	"morpheme_language_models_backups",
	"morphological_parsers_backups",
}

// PruneBackups deletes backup rows older than retention across every
// resource's backup table and returns the total rows removed. Backup rows
// are otherwise permanent audit history; this only runs from the
// administrator-invoked retention sweep (cmd/old-server's cron schedule),
// never from a request handler.
func (s *Store) PruneBackups(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.clock().Add(-retention)

	var total int64
	for _, table := range backupTables {
		q := fmt.Sprintf("DELETE FROM %s WHERE backup_datetime < %s", table, s.ph(1))
		res, err := s.db.ExecContext(ctx, q, cutoff)
		if err != nil {
			return total, fmt.Errorf("pruning %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("counting pruned rows in %s: %w", table, err)
		}
		total += n
	}
	return total, nil
}
