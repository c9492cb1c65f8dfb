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

// MorphologicalParserStore persists MorphologicalParser rows, which
// compose a Phonology, Morphology and MorphemeLanguageModel into the
// artifact pkg/parser loads at parse time.
type MorphologicalParserStore struct{ *Store }

func NewMorphologicalParserStore(s *Store) *MorphologicalParserStore {
	return &MorphologicalParserStore{s}
}

func (ps *MorphologicalParserStore) span(ctx context.Context, op string, id interface{}) (context.Context, trace.Span) {
	return tracer.Start(ctx, "MorphologicalParserStore."+op, trace.WithAttributes(
		attribute.String("db.system", ps.dialect.Name()),
		attribute.String("db.table", "morphological_parsers"),
		attribute.String("old.parser_id", fmt.Sprintf("%v", id)),
	))
}

func (ps *MorphologicalParserStore) Create(ctx context.Context, p *domain.MorphologicalParser) error {
	ctx, span := ps.span(ctx, "Create", "new")
	defer span.End()
	p.DatetimeModified = ps.clock()
	q := fmt.Sprintf(`INSERT INTO morphological_parsers (uuid, name, description,
			phonology_id, morphology_id, language_model_id, generate_attempt,
			generate_message, compile_succeeded, compile_message, compile_attempt,
			datetime_compiled, datetime_modified)
		VALUES (%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s) RETURNING id`,
		ps.ph(1), ps.ph(2), ps.ph(3), ps.ph(4), ps.ph(5), ps.ph(6), ps.ph(7), ps.ph(8),
		ps.ph(9), ps.ph(10), ps.ph(11), ps.ph(12), ps.ph(13))
	err := ps.db.QueryRowContext(ctx, q, p.UUID, p.Name, p.Description, p.PhonologyID,
		p.MorphologyID, p.LanguageModelID, p.GenerateAttempt, p.GenerateMessage,
		p.CompileSucceeded, p.CompileMessage, p.CompileAttempt, p.DatetimeCompiled,
		p.DatetimeModified).Scan(&p.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating morphological parser: %w", err)
	}
	return nil
}

func (ps *MorphologicalParserStore) Get(ctx context.Context, id int64) (*domain.MorphologicalParser, error) {
	return ps.scanOne(ctx, "id = "+ps.ph(1), id)
}

func (ps *MorphologicalParserStore) GetByUUID(ctx context.Context, uuid string) (*domain.MorphologicalParser, error) {
	return ps.scanOne(ctx, "uuid = "+ps.ph(1), uuid)
}

// List returns every morphological parser, ordered by id.
func (ps *MorphologicalParserStore) List(ctx context.Context) ([]*domain.MorphologicalParser, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT id, uuid, name, description, phonology_id,
			morphology_id, language_model_id, generate_attempt, generate_message,
			compile_succeeded, compile_message, compile_attempt, datetime_compiled,
			datetime_modified FROM morphological_parsers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing morphological parsers: %w", err)
	}
	defer rows.Close()

	var out []*domain.MorphologicalParser
	for rows.Next() {
		var p domain.MorphologicalParser
		if err := rows.Scan(&p.ID, &p.UUID, &p.Name, &p.Description, &p.PhonologyID, &p.MorphologyID,
			&p.LanguageModelID, &p.GenerateAttempt, &p.GenerateMessage, &p.CompileSucceeded,
			&p.CompileMessage, &p.CompileAttempt, &p.DatetimeCompiled, &p.DatetimeModified); err != nil {
			return nil, fmt.Errorf("scanning morphological parser row: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (ps *MorphologicalParserStore) scanOne(ctx context.Context, where string, arg interface{}) (*domain.MorphologicalParser, error) {
	row := ps.db.QueryRowContext(ctx, `SELECT id, uuid, name, description, phonology_id,
			morphology_id, language_model_id, generate_attempt, generate_message,
			compile_succeeded, compile_message, compile_attempt, datetime_compiled,
			datetime_modified FROM morphological_parsers WHERE `+where, arg)
	var p domain.MorphologicalParser
	err := row.Scan(&p.ID, &p.UUID, &p.Name, &p.Description, &p.PhonologyID, &p.MorphologyID,
		&p.LanguageModelID, &p.GenerateAttempt, &p.GenerateMessage, &p.CompileSucceeded,
		&p.CompileMessage, &p.CompileAttempt, &p.DatetimeCompiled, &p.DatetimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning morphological parser: %w", err)
	}
	return &p, nil
}

func (ps *MorphologicalParserStore) Update(ctx context.Context, next *domain.MorphologicalParser) error {
	ctx, span := ps.span(ctx, "Update", next.ID)
	defer span.End()
	current, err := ps.Get(ctx, next.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "MorphologicalParser", ID: next.ID}
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
	q := fmt.Sprintf(`UPDATE morphological_parsers SET name=%s, description=%s,
			phonology_id=%s, morphology_id=%s, language_model_id=%s, generate_attempt=%s,
			generate_message=%s, compile_succeeded=%s, compile_message=%s,
			compile_attempt=%s, datetime_compiled=%s, datetime_modified=%s WHERE id=%s`,
		ps.ph(1), ps.ph(2), ps.ph(3), ps.ph(4), ps.ph(5), ps.ph(6), ps.ph(7), ps.ph(8),
		ps.ph(9), ps.ph(10), ps.ph(11), ps.ph(12), ps.ph(13))
	_, err = ps.db.ExecContext(ctx, q, next.Name, next.Description, next.PhonologyID,
		next.MorphologyID, next.LanguageModelID, next.GenerateAttempt, next.GenerateMessage,
		next.CompileSucceeded, next.CompileMessage, next.CompileAttempt,
		next.DatetimeCompiled, next.DatetimeModified, next.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("updating morphological parser %d: %w", next.ID, err)
	}
	return nil
}

// BumpCompileAttempt assigns a fresh nonce before a parser-assembly job
// (compose the three component artifacts) is enqueued.
func (ps *MorphologicalParserStore) BumpCompileAttempt(ctx context.Context, id int64) (string, error) {
	nonce := uuid.NewString()
	_, err := ps.db.ExecContext(ctx, "UPDATE morphological_parsers SET compile_attempt = "+ps.ph(1)+" WHERE id = "+ps.ph(2), nonce, id)
	if err != nil {
		return "", fmt.Errorf("bumping parser %d compile attempt: %w", id, err)
	}
	return nonce, nil
}

func (ps *MorphologicalParserStore) Delete(ctx context.Context, id int64) error {
	ctx, span := ps.span(ctx, "Delete", id)
	defer span.End()
	current, err := ps.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "MorphologicalParser", ID: id}
	}
	if err := ps.writeBackup(ctx, current); err != nil {
		return err
	}
	if _, err := ps.db.ExecContext(ctx, "DELETE FROM morphological_parsers WHERE id = "+ps.ph(1), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting morphological parser %d: %w", id, err)
	}
	return nil
}

func (ps *MorphologicalParserStore) writeBackup(ctx context.Context, p *domain.MorphologicalParser) error {
	b := backup.NewMorphologicalParserBackup(p, ps.clock())
	payload, err := json.Marshal(b.MorphologicalParser)
	if err != nil {
		return fmt.Errorf("marshaling parser backup: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO morphological_parsers_backups
		(uuid, backup_datetime, morphological_parser) VALUES (%s, %s, %s)`,
		ps.ph(1), ps.ph(2), ps.ph(3))
	if _, err := ps.db.ExecContext(ctx, q, b.UUID, b.BackupDatetime, payload); err != nil {
		return fmt.Errorf("writing parser backup: %w", err)
	}
	return nil
}

func (ps *MorphologicalParserStore) History(ctx context.Context, idOrUUID string) (domain.MorphologicalParserHistory, error) {
	var current *domain.MorphologicalParser
	var err error
	if id, parseErr := strconv.ParseInt(idOrUUID, 10, 64); parseErr == nil {
		current, err = ps.Get(ctx, id)
	}
	if current == nil {
		current, err = ps.GetByUUID(ctx, idOrUUID)
	}
	if err != nil {
		return domain.MorphologicalParserHistory{}, err
	}
	uuidStr := idOrUUID
	if current != nil {
		uuidStr = current.UUID
	}
	rows, err := ps.db.QueryContext(ctx, `SELECT uuid, backup_datetime, morphological_parser
		FROM morphological_parsers_backups WHERE uuid = `+ps.ph(1), uuidStr)
	if err != nil {
		return domain.MorphologicalParserHistory{}, fmt.Errorf("querying parser backups: %w", err)
	}
	defer rows.Close()
	var backups []domain.MorphologicalParserBackup
	for rows.Next() {
		var b domain.MorphologicalParserBackup
		var payload []byte
		if err := rows.Scan(&b.UUID, &b.BackupDatetime, &payload); err != nil {
			return domain.MorphologicalParserHistory{}, fmt.Errorf("scanning parser backup: %w", err)
		}
		if err := json.Unmarshal(payload, &b.MorphologicalParser); err != nil {
			return domain.MorphologicalParserHistory{}, fmt.Errorf("unmarshaling parser backup: %w", err)
		}
		backups = append(backups, b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].BackupDatetime.After(backups[j].BackupDatetime) })
	if current == nil && len(backups) == 0 {
		return domain.MorphologicalParserHistory{}, &domain.NotFoundError{Kind: "MorphologicalParser", ID: idOrUUID}
	}
	return backup.BuildMorphologicalParserHistory(current, backups), nil
}
