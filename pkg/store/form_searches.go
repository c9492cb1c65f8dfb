package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dativebase/old/pkg/domain"
)

// FormSearchStore persists saved, schema-validated Form queries. Unlike
// Form/Collection/Corpus/Phonology/Morphology/MorphemeLanguageModel/
// MorphologicalParser, FormSearch carries no backup-on-mutate or
// vacuous-update rejection — it is not named among the backed-up
// resources.
type FormSearchStore struct{ *Store }

// NewFormSearchStore builds a FormSearchStore over s.
func NewFormSearchStore(s *Store) *FormSearchStore { return &FormSearchStore{s} }

func (fs *FormSearchStore) span(ctx context.Context, op string, id interface{}) (context.Context, trace.Span) {
	return tracer.Start(ctx, "FormSearchStore."+op, trace.WithAttributes(
		attribute.String("db.system", fs.dialect.Name()),
		attribute.String("db.table", "form_searches"),
		attribute.String("old.form_search_id", fmt.Sprintf("%v", id)),
	))
}

func (fs *FormSearchStore) Create(ctx context.Context, s *domain.FormSearch) error {
	ctx, span := fs.span(ctx, "Create", "new")
	defer span.End()

	s.DatetimeModified = fs.clock()
	q := fmt.Sprintf(`INSERT INTO form_searches (uuid, name, description, search, enterer_id, datetime_modified)
		VALUES (%s, %s, %s, %s, %s, %s) RETURNING id`,
		fs.ph(1), fs.ph(2), fs.ph(3), fs.ph(4), fs.ph(5), fs.ph(6))
	err := fs.db.QueryRowContext(ctx, q, s.UUID, s.Name, s.Description, s.SearchJSON, s.EntererID, s.DatetimeModified).
		Scan(&s.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("creating form search: %w", err)
	}
	return nil
}

func (fs *FormSearchStore) Get(ctx context.Context, id int64) (*domain.FormSearch, error) {
	ctx, span := fs.span(ctx, "Get", id)
	defer span.End()

	row := fs.db.QueryRowContext(ctx, `
		SELECT id, uuid, name, description, search, enterer_id, datetime_modified
		FROM form_searches WHERE id = `+fs.ph(1), id)
	s, err := scanFormSearch(row)
	if err != nil {
		span.RecordError(err)
	}
	return s, err
}

// List returns every form search, ordered by id.
func (fs *FormSearchStore) List(ctx context.Context) ([]*domain.FormSearch, error) {
	rows, err := fs.db.QueryContext(ctx, `SELECT id, uuid, name, description, search,
			enterer_id, datetime_modified FROM form_searches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing form searches: %w", err)
	}
	defer rows.Close()

	var out []*domain.FormSearch
	for rows.Next() {
		var s domain.FormSearch
		if err := rows.Scan(&s.ID, &s.UUID, &s.Name, &s.Description, &s.SearchJSON,
			&s.EntererID, &s.DatetimeModified); err != nil {
			return nil, fmt.Errorf("scanning form search row: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func scanFormSearch(row *sql.Row) (*domain.FormSearch, error) {
	var s domain.FormSearch
	err := row.Scan(&s.ID, &s.UUID, &s.Name, &s.Description, &s.SearchJSON, &s.EntererID, &s.DatetimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning form search: %w", err)
	}
	return &s, nil
}

func (fs *FormSearchStore) Update(ctx context.Context, next *domain.FormSearch) error {
	ctx, span := fs.span(ctx, "Update", next.ID)
	defer span.End()

	next.DatetimeModified = fs.clock()
	q := fmt.Sprintf(`UPDATE form_searches SET name=%s, description=%s, search=%s, enterer_id=%s,
		datetime_modified=%s WHERE id=%s`,
		fs.ph(1), fs.ph(2), fs.ph(3), fs.ph(4), fs.ph(5), fs.ph(6))
	_, err := fs.db.ExecContext(ctx, q, next.Name, next.Description, next.SearchJSON, next.EntererID,
		next.DatetimeModified, next.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("updating form search %d: %w", next.ID, err)
	}
	return nil
}

func (fs *FormSearchStore) Delete(ctx context.Context, id int64) error {
	ctx, span := fs.span(ctx, "Delete", id)
	defer span.End()
	if _, err := fs.db.ExecContext(ctx, "DELETE FROM form_searches WHERE id = "+fs.ph(1), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting form search %d: %w", id, err)
	}
	return nil
}
