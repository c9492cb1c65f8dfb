package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dativebase/old/pkg/backup"
	"github.com/dativebase/old/pkg/domain"
)

// PhonologyStore persists Phonology rows, including the compile-attempt
// nonce the worker pool (pkg/worker) reads back to decide whether a
// completed job's result still matches the resource's latest request.
type PhonologyStore struct{ *Store }

func NewPhonologyStore(s *Store) *PhonologyStore { return &PhonologyStore{s} }

func (ps *PhonologyStore) span(ctx context.Context, op string, id interface{}) (context.Context, trace.Span) {
	return tracer.Start(ctx, "PhonologyStore."+op, trace.WithAttributes(
		attribute.String("db.system", ps.dialect.Name()),
		attribute.String("db.table", "phonologies"),
		attribute.String("old.phonology_id", fmt.Sprintf("%v", id)),
	))
}

func (ps *PhonologyStore) Create(ctx context.Context, p *domain.Phonology) error {
	ctx, span := ps.span(ctx, "Create", "new")
	defer span.End()
	p.DatetimeModified = ps.clock()
	q := fmt.Sprintf(`INSERT INTO phonologies (uuid, name, description, script,
			compile_succeeded, compile_message, compile_attempt, datetime_compiled,
			datetime_modified)
		VALUES (%s,%s,%s,%s,%s,%s,%s,%s,%s) RETURNING id`,
		ps.ph(1), ps.ph(2), ps.ph(3), ps.ph(4), ps.ph(5), ps.ph(6), ps.ph(7), ps.ph(8), ps.ph(9))
	err := ps.db.QueryRowContext(ctx, q, p.UUID, p.Name, p.Description, p.Script,
		p.CompileSucceeded, p.CompileMessage, p.CompileAttempt, p.DatetimeCompiled,
		p.DatetimeModified).Scan(&p.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating phonology: %w", err)
	}
	return nil
}

func (ps *PhonologyStore) Get(ctx context.Context, id int64) (*domain.Phonology, error) {
	return ps.scanOne(ctx, "id = "+ps.ph(1), id)
}

func (ps *PhonologyStore) GetByUUID(ctx context.Context, uuid string) (*domain.Phonology, error) {
	return ps.scanOne(ctx, "uuid = "+ps.ph(1), uuid)
}

// List returns every phonology, ordered by id.
func (ps *PhonologyStore) List(ctx context.Context) ([]*domain.Phonology, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT id, uuid, name, description, script,
			compile_succeeded, compile_message, compile_attempt, datetime_compiled,
			datetime_modified FROM phonologies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing phonologies: %w", err)
	}
	defer rows.Close()

	var out []*domain.Phonology
	for rows.Next() {
		var p domain.Phonology
		if err := rows.Scan(&p.ID, &p.UUID, &p.Name, &p.Description, &p.Script, &p.CompileSucceeded,
			&p.CompileMessage, &p.CompileAttempt, &p.DatetimeCompiled, &p.DatetimeModified); err != nil {
			return nil, fmt.Errorf("scanning phonology row: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (ps *PhonologyStore) scanOne(ctx context.Context, where string, arg interface{}) (*domain.Phonology, error) {
	row := ps.db.QueryRowContext(ctx, `SELECT id, uuid, name, description, script,
			compile_succeeded, compile_message, compile_attempt, datetime_compiled,
			datetime_modified FROM phonologies WHERE `+where, arg)
	var p domain.Phonology
	err := row.Scan(&p.ID, &p.UUID, &p.Name, &p.Description, &p.Script, &p.CompileSucceeded,
		&p.CompileMessage, &p.CompileAttempt, &p.DatetimeCompiled, &p.DatetimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning phonology: %w", err)
	}
	return &p, nil
}

func (ps *PhonologyStore) Update(ctx context.Context, next *domain.Phonology) error {
	ctx, span := ps.span(ctx, "Update", next.ID)
	defer span.End()
	current, err := ps.Get(ctx, next.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Phonology", ID: next.ID}
	}
	comparable := *next
	comparable.DatetimeModified = current.DatetimeModified
	if backup.Identical(comparable, *current) {
		return &domain.NotNewError{}
	}
	if err := ps.writeBackup(ctx, current); err != nil {
		return err
	}
	next.DatetimeModified = ps.clock()
	q := fmt.Sprintf(`UPDATE phonologies SET name=%s, description=%s, script=%s,
			compile_succeeded=%s, compile_message=%s, compile_attempt=%s,
			datetime_compiled=%s, datetime_modified=%s WHERE id=%s`,
		ps.ph(1), ps.ph(2), ps.ph(3), ps.ph(4), ps.ph(5), ps.ph(6), ps.ph(7), ps.ph(8), ps.ph(9))
	_, err = ps.db.ExecContext(ctx, q, next.Name, next.Description, next.Script,
		next.CompileSucceeded, next.CompileMessage, next.CompileAttempt,
		next.DatetimeCompiled, next.DatetimeModified, next.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("updating phonology %d: %w", next.ID, err)
	}
	return nil
}

// BumpCompileAttempt assigns a fresh nonce to id and persists it
// unconditionally before the caller enqueues a compile job, so a job
// whose result lands after a newer request has superseded it can be
// told apart from the current attempt.
func (ps *PhonologyStore) BumpCompileAttempt(ctx context.Context, id int64) (string, error) {
	nonce := uuid.NewString()
	_, err := ps.db.ExecContext(ctx, "UPDATE phonologies SET compile_attempt = "+ps.ph(1)+" WHERE id = "+ps.ph(2), nonce, id)
	if err != nil {
		return "", fmt.Errorf("bumping phonology %d compile attempt: %w", id, err)
	}
	return nonce, nil
}

func (ps *PhonologyStore) Delete(ctx context.Context, id int64) error {
	ctx, span := ps.span(ctx, "Delete", id)
	defer span.End()
	current, err := ps.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Phonology", ID: id}
	}
	if err := ps.writeBackup(ctx, current); err != nil {
		return err
	}
	if _, err := ps.db.ExecContext(ctx, "DELETE FROM phonologies WHERE id = "+ps.ph(1), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting phonology %d: %w", id, err)
	}
	return nil
}

func (ps *PhonologyStore) writeBackup(ctx context.Context, p *domain.Phonology) error {
	b := backup.NewPhonologyBackup(p, ps.clock())
	payload, err := json.Marshal(b.Phonology)
	if err != nil {
		return fmt.Errorf("marshaling phonology backup: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO phonologies_backups (uuid, backup_datetime, phonology)
		VALUES (%s, %s, %s)`, ps.ph(1), ps.ph(2), ps.ph(3))
	if _, err := ps.db.ExecContext(ctx, q, b.UUID, b.BackupDatetime, payload); err != nil {
		return fmt.Errorf("writing phonology backup: %w", err)
	}
	return nil
}

func (ps *PhonologyStore) History(ctx context.Context, idOrUUID string) (domain.PhonologyHistory, error) {
	var current *domain.Phonology
	var err error
	if id, parseErr := strconv.ParseInt(idOrUUID, 10, 64); parseErr == nil {
		current, err = ps.Get(ctx, id)
	}
	if current == nil {
		current, err = ps.GetByUUID(ctx, idOrUUID)
	}
	if err != nil {
		return domain.PhonologyHistory{}, err
	}
	uuidStr := idOrUUID
	if current != nil {
		uuidStr = current.UUID
	}
	rows, err := ps.db.QueryContext(ctx, `SELECT uuid, backup_datetime, phonology
		FROM phonologies_backups WHERE uuid = `+ps.ph(1), uuidStr)
	if err != nil {
		return domain.PhonologyHistory{}, fmt.Errorf("querying phonology backups: %w", err)
	}
	defer rows.Close()
	var backups []domain.PhonologyBackup
	for rows.Next() {
		var b domain.PhonologyBackup
		var payload []byte
		if err := rows.Scan(&b.UUID, &b.BackupDatetime, &payload); err != nil {
			return domain.PhonologyHistory{}, fmt.Errorf("scanning phonology backup: %w", err)
		}
		if err := json.Unmarshal(payload, &b.Phonology); err != nil {
			return domain.PhonologyHistory{}, fmt.Errorf("unmarshaling phonology backup: %w", err)
		}
		backups = append(backups, b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].BackupDatetime.After(backups[j].BackupDatetime) })
	if current == nil && len(backups) == 0 {
		return domain.PhonologyHistory{}, &domain.NotFoundError{Kind: "Phonology", ID: idOrUUID}
	}
	return backup.BuildPhonologyHistory(current, backups), nil
}
