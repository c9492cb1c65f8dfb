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

// MorphologyStore persists Morphology rows, tracking both the
// script-generation attempt (from rules/rules-corpus) and the
// subsequent foma compile attempt.
type MorphologyStore struct{ *Store }

func NewMorphologyStore(s *Store) *MorphologyStore { return &MorphologyStore{s} }

func (ms *MorphologyStore) span(ctx context.Context, op string, id interface{}) (context.Context, trace.Span) {
	return tracer.Start(ctx, "MorphologyStore."+op, trace.WithAttributes(
		attribute.String("db.system", ms.dialect.Name()),
		attribute.String("db.table", "morphologies"),
		attribute.String("old.morphology_id", fmt.Sprintf("%v", id)),
	))
}

func (ms *MorphologyStore) Create(ctx context.Context, m *domain.Morphology) error {
	ctx, span := ms.span(ctx, "Create", "new")
	defer span.End()
	m.DatetimeModified = ms.clock()
	q := fmt.Sprintf(`INSERT INTO morphologies (uuid, name, description, rules,
			rules_corpus_id, lexicon_corpus_id, script_type, rich_upper, rich_lower,
			include_unknowns, extract_morphemes_from_rules_corpus, rare_delimiter,
			generate_attempt, generate_message, generate_succeeded, compile_succeeded,
			compile_message, compile_attempt, datetime_compiled, datetime_modified)
		VALUES (%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s) RETURNING id`,
		ms.ph(1), ms.ph(2), ms.ph(3), ms.ph(4), ms.ph(5), ms.ph(6), ms.ph(7), ms.ph(8),
		ms.ph(9), ms.ph(10), ms.ph(11), ms.ph(12), ms.ph(13), ms.ph(14), ms.ph(15),
		ms.ph(16), ms.ph(17), ms.ph(18), ms.ph(19), ms.ph(20))
	err := ms.db.QueryRowContext(ctx, q, m.UUID, m.Name, m.Description, m.Rules,
		m.RulesCorpusID, m.LexiconCorpusID, m.ScriptType, m.RichUpper, m.RichLower,
		m.IncludeUnknowns, m.ExtractMorphemesFromRulesCorpus, m.RareDelimiter,
		m.GenerateAttempt, m.GenerateMessage, m.GenerateSucceeded, m.CompileSucceeded,
		m.CompileMessage, m.CompileAttempt, m.DatetimeCompiled, m.DatetimeModified).Scan(&m.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating morphology: %w", err)
	}
	return nil
}

func (ms *MorphologyStore) Get(ctx context.Context, id int64) (*domain.Morphology, error) {
	return ms.scanOne(ctx, "id = "+ms.ph(1), id)
}

func (ms *MorphologyStore) GetByUUID(ctx context.Context, uuid string) (*domain.Morphology, error) {
	return ms.scanOne(ctx, "uuid = "+ms.ph(1), uuid)
}

// List returns every morphology, ordered by id.
func (ms *MorphologyStore) List(ctx context.Context) ([]*domain.Morphology, error) {
	rows, err := ms.db.QueryContext(ctx, `SELECT id, uuid, name, description, rules,
			rules_corpus_id, lexicon_corpus_id, script_type, rich_upper, rich_lower,
			include_unknowns, extract_morphemes_from_rules_corpus, rare_delimiter,
			generate_attempt, generate_message, generate_succeeded, compile_succeeded,
			compile_message, compile_attempt, datetime_compiled, datetime_modified
		FROM morphologies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing morphologies: %w", err)
	}
	defer rows.Close()

	var out []*domain.Morphology
	for rows.Next() {
		var m domain.Morphology
		if err := rows.Scan(&m.ID, &m.UUID, &m.Name, &m.Description, &m.Rules, &m.RulesCorpusID,
			&m.LexiconCorpusID, &m.ScriptType, &m.RichUpper, &m.RichLower, &m.IncludeUnknowns,
			&m.ExtractMorphemesFromRulesCorpus, &m.RareDelimiter, &m.GenerateAttempt,
			&m.GenerateMessage, &m.GenerateSucceeded, &m.CompileSucceeded, &m.CompileMessage,
			&m.CompileAttempt, &m.DatetimeCompiled, &m.DatetimeModified); err != nil {
			return nil, fmt.Errorf("scanning morphology row: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (ms *MorphologyStore) scanOne(ctx context.Context, where string, arg interface{}) (*domain.Morphology, error) {
	row := ms.db.QueryRowContext(ctx, `SELECT id, uuid, name, description, rules,
			rules_corpus_id, lexicon_corpus_id, script_type, rich_upper, rich_lower,
			include_unknowns, extract_morphemes_from_rules_corpus, rare_delimiter,
			generate_attempt, generate_message, generate_succeeded, compile_succeeded,
			compile_message, compile_attempt, datetime_compiled, datetime_modified
		FROM morphologies WHERE `+where, arg)
	var m domain.Morphology
	err := row.Scan(&m.ID, &m.UUID, &m.Name, &m.Description, &m.Rules, &m.RulesCorpusID,
		&m.LexiconCorpusID, &m.ScriptType, &m.RichUpper, &m.RichLower, &m.IncludeUnknowns,
		&m.ExtractMorphemesFromRulesCorpus, &m.RareDelimiter, &m.GenerateAttempt,
		&m.GenerateMessage, &m.GenerateSucceeded, &m.CompileSucceeded, &m.CompileMessage,
		&m.CompileAttempt, &m.DatetimeCompiled, &m.DatetimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning morphology: %w", err)
	}
	return &m, nil
}

func (ms *MorphologyStore) Update(ctx context.Context, next *domain.Morphology) error {
	ctx, span := ms.span(ctx, "Update", next.ID)
	defer span.End()
	current, err := ms.Get(ctx, next.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Morphology", ID: next.ID}
	}
	comparable := *next
	comparable.DatetimeModified = current.DatetimeModified
	if backup.Identical(comparable, *current) {
		return &domain.NotNewError{}
	}
	if err := ms.writeBackup(ctx, current); err != nil {
		return err
	}
	next.DatetimeModified = ms.clock()
	q := fmt.Sprintf(`UPDATE morphologies SET name=%s, description=%s, rules=%s,
			rules_corpus_id=%s, lexicon_corpus_id=%s, script_type=%s, rich_upper=%s,
			rich_lower=%s, include_unknowns=%s, extract_morphemes_from_rules_corpus=%s,
			rare_delimiter=%s, generate_attempt=%s, generate_message=%s,
			generate_succeeded=%s, compile_succeeded=%s, compile_message=%s,
			compile_attempt=%s, datetime_compiled=%s, datetime_modified=%s WHERE id=%s`,
		ms.ph(1), ms.ph(2), ms.ph(3), ms.ph(4), ms.ph(5), ms.ph(6), ms.ph(7), ms.ph(8),
		ms.ph(9), ms.ph(10), ms.ph(11), ms.ph(12), ms.ph(13), ms.ph(14), ms.ph(15),
		ms.ph(16), ms.ph(17), ms.ph(18), ms.ph(19))
	_, err = ms.db.ExecContext(ctx, q, next.Name, next.Description, next.Rules,
		next.RulesCorpusID, next.LexiconCorpusID, next.ScriptType, next.RichUpper,
		next.RichLower, next.IncludeUnknowns, next.ExtractMorphemesFromRulesCorpus,
		next.RareDelimiter, next.GenerateAttempt, next.GenerateMessage,
		next.GenerateSucceeded, next.CompileSucceeded, next.CompileMessage,
		next.CompileAttempt, next.DatetimeCompiled, next.DatetimeModified, next.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("updating morphology %d: %w", next.ID, err)
	}
	return nil
}

// BumpCompileAttempt assigns a fresh nonce before an enqueue, same
// contract as PhonologyStore.BumpCompileAttempt.
func (ms *MorphologyStore) BumpCompileAttempt(ctx context.Context, id int64) (string, error) {
	nonce := uuid.NewString()
	_, err := ms.db.ExecContext(ctx, "UPDATE morphologies SET compile_attempt = "+ms.ph(1)+" WHERE id = "+ms.ph(2), nonce, id)
	if err != nil {
		return "", fmt.Errorf("bumping morphology %d compile attempt: %w", id, err)
	}
	return nonce, nil
}

// BumpGenerateAttempt assigns a fresh nonce before a script-generation
// job is enqueued.
func (ms *MorphologyStore) BumpGenerateAttempt(ctx context.Context, id int64) (string, error) {
	nonce := uuid.NewString()
	_, err := ms.db.ExecContext(ctx, "UPDATE morphologies SET generate_attempt = "+ms.ph(1)+" WHERE id = "+ms.ph(2), nonce, id)
	if err != nil {
		return "", fmt.Errorf("bumping morphology %d generate attempt: %w", id, err)
	}
	return nonce, nil
}

func (ms *MorphologyStore) Delete(ctx context.Context, id int64) error {
	ctx, span := ms.span(ctx, "Delete", id)
	defer span.End()
	current, err := ms.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Morphology", ID: id}
	}
	if err := ms.writeBackup(ctx, current); err != nil {
		return err
	}
	if _, err := ms.db.ExecContext(ctx, "DELETE FROM morphologies WHERE id = "+ms.ph(1), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting morphology %d: %w", id, err)
	}
	return nil
}

func (ms *MorphologyStore) writeBackup(ctx context.Context, m *domain.Morphology) error {
	b := backup.NewMorphologyBackup(m, ms.clock())
	payload, err := json.Marshal(b.Morphology)
	if err != nil {
		return fmt.Errorf("marshaling morphology backup: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO morphologies_backups (uuid, backup_datetime, morphology)
		VALUES (%s, %s, %s)`, ms.ph(1), ms.ph(2), ms.ph(3))
	if _, err := ms.db.ExecContext(ctx, q, b.UUID, b.BackupDatetime, payload); err != nil {
		return fmt.Errorf("writing morphology backup: %w", err)
	}
	return nil
}

func (ms *MorphologyStore) History(ctx context.Context, idOrUUID string) (domain.MorphologyHistory, error) {
	var current *domain.Morphology
	var err error
	if id, parseErr := strconv.ParseInt(idOrUUID, 10, 64); parseErr == nil {
		current, err = ms.Get(ctx, id)
	}
	if current == nil {
		current, err = ms.GetByUUID(ctx, idOrUUID)
	}
	if err != nil {
		return domain.MorphologyHistory{}, err
	}
	uuidStr := idOrUUID
	if current != nil {
		uuidStr = current.UUID
	}
	rows, err := ms.db.QueryContext(ctx, `SELECT uuid, backup_datetime, morphology
		FROM morphologies_backups WHERE uuid = `+ms.ph(1), uuidStr)
	if err != nil {
		return domain.MorphologyHistory{}, fmt.Errorf("querying morphology backups: %w", err)
	}
	defer rows.Close()
	var backups []domain.MorphologyBackup
	for rows.Next() {
		var b domain.MorphologyBackup
		var payload []byte
		if err := rows.Scan(&b.UUID, &b.BackupDatetime, &payload); err != nil {
			return domain.MorphologyHistory{}, fmt.Errorf("scanning morphology backup: %w", err)
		}
		if err := json.Unmarshal(payload, &b.Morphology); err != nil {
			return domain.MorphologyHistory{}, fmt.Errorf("unmarshaling morphology backup: %w", err)
		}
		backups = append(backups, b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].BackupDatetime.After(backups[j].BackupDatetime) })
	if current == nil && len(backups) == 0 {
		return domain.MorphologyHistory{}, &domain.NotFoundError{Kind: "Morphology", ID: idOrUUID}
	}
	return backup.BuildMorphologyHistory(current, backups), nil
}
