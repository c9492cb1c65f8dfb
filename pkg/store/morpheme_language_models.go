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

// MorphemeLanguageModelStore persists MorphemeLanguageModel rows,
// tracking the estimate-ngram training attempt and the separate
// perplexity-computation attempt.
type MorphemeLanguageModelStore struct{ *Store }

func NewMorphemeLanguageModelStore(s *Store) *MorphemeLanguageModelStore {
	return &MorphemeLanguageModelStore{s}
}

func (ls *MorphemeLanguageModelStore) span(ctx context.Context, op string, id interface{}) (context.Context, trace.Span) {
	return tracer.Start(ctx, "MorphemeLanguageModelStore."+op, trace.WithAttributes(
		attribute.String("db.system", ls.dialect.Name()),
		attribute.String("db.table", "morpheme_language_models"),
		attribute.String("old.language_model_id", fmt.Sprintf("%v", id)),
	))
}

func (ls *MorphemeLanguageModelStore) Create(ctx context.Context, m *domain.MorphemeLanguageModel) error {
	ctx, span := ls.span(ctx, "Create", "new")
	defer span.End()
	m.DatetimeModified = ls.clock()
	q := fmt.Sprintf(`INSERT INTO morpheme_language_models (uuid, name, description,
			corpus_id, vocabulary_morphology_id, toolkit, "order", smoothing, categorial,
			rare_delimiter, generate_succeeded, generate_message, generate_attempt,
			perplexity, perplexity_computed, perplexity_attempt, datetime_modified)
		VALUES (%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s) RETURNING id`,
		ls.ph(1), ls.ph(2), ls.ph(3), ls.ph(4), ls.ph(5), ls.ph(6), ls.ph(7), ls.ph(8),
		ls.ph(9), ls.ph(10), ls.ph(11), ls.ph(12), ls.ph(13), ls.ph(14), ls.ph(15), ls.ph(16), ls.ph(17))
	err := ls.db.QueryRowContext(ctx, q, m.UUID, m.Name, m.Description, m.CorpusID,
		m.VocabularyMorphologyID, m.Toolkit, m.Order, m.Smoothing, m.Categorial,
		m.RareDelimiter, m.GenerateSucceeded, m.GenerateMessage, m.GenerateAttempt,
		m.Perplexity, m.PerplexityComputed, m.PerplexityAttempt, m.DatetimeModified).Scan(&m.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating morpheme language model: %w", err)
	}
	return nil
}

func (ls *MorphemeLanguageModelStore) Get(ctx context.Context, id int64) (*domain.MorphemeLanguageModel, error) {
	return ls.scanOne(ctx, "id = "+ls.ph(1), id)
}

func (ls *MorphemeLanguageModelStore) GetByUUID(ctx context.Context, uuid string) (*domain.MorphemeLanguageModel, error) {
	return ls.scanOne(ctx, "uuid = "+ls.ph(1), uuid)
}

// List returns every morpheme language model, ordered by id.
func (ls *MorphemeLanguageModelStore) List(ctx context.Context) ([]*domain.MorphemeLanguageModel, error) {
	rows, err := ls.db.QueryContext(ctx, `SELECT id, uuid, name, description, corpus_id,
			vocabulary_morphology_id, toolkit, "order", smoothing, categorial, rare_delimiter,
			generate_succeeded, generate_message, generate_attempt, perplexity,
			perplexity_computed, perplexity_attempt, datetime_modified
		FROM morpheme_language_models ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing morpheme language models: %w", err)
	}
	defer rows.Close()

	var out []*domain.MorphemeLanguageModel
	for rows.Next() {
		var m domain.MorphemeLanguageModel
		if err := rows.Scan(&m.ID, &m.UUID, &m.Name, &m.Description, &m.CorpusID,
			&m.VocabularyMorphologyID, &m.Toolkit, &m.Order, &m.Smoothing, &m.Categorial,
			&m.RareDelimiter, &m.GenerateSucceeded, &m.GenerateMessage, &m.GenerateAttempt,
			&m.Perplexity, &m.PerplexityComputed, &m.PerplexityAttempt, &m.DatetimeModified); err != nil {
			return nil, fmt.Errorf("scanning morpheme language model row: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (ls *MorphemeLanguageModelStore) scanOne(ctx context.Context, where string, arg interface{}) (*domain.MorphemeLanguageModel, error) {
	row := ls.db.QueryRowContext(ctx, `SELECT id, uuid, name, description, corpus_id,
			vocabulary_morphology_id, toolkit, "order", smoothing, categorial, rare_delimiter,
			generate_succeeded, generate_message, generate_attempt, perplexity,
			perplexity_computed, perplexity_attempt, datetime_modified
		FROM morpheme_language_models WHERE `+where, arg)
	var m domain.MorphemeLanguageModel
	err := row.Scan(&m.ID, &m.UUID, &m.Name, &m.Description, &m.CorpusID,
		&m.VocabularyMorphologyID, &m.Toolkit, &m.Order, &m.Smoothing, &m.Categorial,
		&m.RareDelimiter, &m.GenerateSucceeded, &m.GenerateMessage, &m.GenerateAttempt,
		&m.Perplexity, &m.PerplexityComputed, &m.PerplexityAttempt, &m.DatetimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning morpheme language model: %w", err)
	}
	return &m, nil
}

func (ls *MorphemeLanguageModelStore) Update(ctx context.Context, next *domain.MorphemeLanguageModel) error {
	ctx, span := ls.span(ctx, "Update", next.ID)
	defer span.End()
	current, err := ls.Get(ctx, next.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "MorphemeLanguageModel", ID: next.ID}
	}
	comparable := *next
	comparable.DatetimeModified = current.DatetimeModified
	if backup.Identical(comparable, *current) {
		return &domain.NotNewError{}
	}
	if err := ls.writeBackup(ctx, current); err != nil {
		return err
	}
	next.DatetimeModified = ls.clock()
	q := fmt.Sprintf(`UPDATE morpheme_language_models SET name=%s, description=%s,
			corpus_id=%s, vocabulary_morphology_id=%s, toolkit=%s, "order"=%s, smoothing=%s,
			categorial=%s, rare_delimiter=%s, generate_succeeded=%s, generate_message=%s,
			generate_attempt=%s, perplexity=%s, perplexity_computed=%s, perplexity_attempt=%s,
			datetime_modified=%s WHERE id=%s`,
		ls.ph(1), ls.ph(2), ls.ph(3), ls.ph(4), ls.ph(5), ls.ph(6), ls.ph(7), ls.ph(8),
		ls.ph(9), ls.ph(10), ls.ph(11), ls.ph(12), ls.ph(13), ls.ph(14), ls.ph(15), ls.ph(16))
	_, err = ls.db.ExecContext(ctx, q, next.Name, next.Description, next.CorpusID,
		next.VocabularyMorphologyID, next.Toolkit, next.Order, next.Smoothing,
		next.Categorial, next.RareDelimiter, next.GenerateSucceeded, next.GenerateMessage,
		next.GenerateAttempt, next.Perplexity, next.PerplexityComputed,
		next.PerplexityAttempt, next.DatetimeModified, next.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("updating morpheme language model %d: %w", next.ID, err)
	}
	return nil
}

// BumpGenerateAttempt assigns a fresh training-attempt nonce before an
// estimate-ngram job is enqueued.
func (ls *MorphemeLanguageModelStore) BumpGenerateAttempt(ctx context.Context, id int64) (string, error) {
	nonce := uuid.NewString()
	_, err := ls.db.ExecContext(ctx, "UPDATE morpheme_language_models SET generate_attempt = "+ls.ph(1)+" WHERE id = "+ls.ph(2), nonce, id)
	if err != nil {
		return "", fmt.Errorf("bumping language model %d generate attempt: %w", id, err)
	}
	return nonce, nil
}

// BumpPerplexityAttempt assigns a fresh nonce before a perplexity
// computation job is enqueued.
func (ls *MorphemeLanguageModelStore) BumpPerplexityAttempt(ctx context.Context, id int64) (string, error) {
	nonce := uuid.NewString()
	_, err := ls.db.ExecContext(ctx, "UPDATE morpheme_language_models SET perplexity_attempt = "+ls.ph(1)+" WHERE id = "+ls.ph(2), nonce, id)
	if err != nil {
		return "", fmt.Errorf("bumping language model %d perplexity attempt: %w", id, err)
	}
	return nonce, nil
}

func (ls *MorphemeLanguageModelStore) Delete(ctx context.Context, id int64) error {
	ctx, span := ls.span(ctx, "Delete", id)
	defer span.End()
	current, err := ls.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "MorphemeLanguageModel", ID: id}
	}
	if err := ls.writeBackup(ctx, current); err != nil {
		return err
	}
	if _, err := ls.db.ExecContext(ctx, "DELETE FROM morpheme_language_models WHERE id = "+ls.ph(1), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting morpheme language model %d: %w", id, err)
	}
	return nil
}

func (ls *MorphemeLanguageModelStore) writeBackup(ctx context.Context, m *domain.MorphemeLanguageModel) error {
	b := backup.NewMorphemeLanguageModelBackup(m, ls.clock())
	payload, err := json.Marshal(b.MorphemeLanguageModel)
	if err != nil {
		return fmt.Errorf("marshaling language model backup: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO morpheme_language_models_backups
		(uuid, backup_datetime, morpheme_language_model) VALUES (%s, %s, %s)`,
		ls.ph(1), ls.ph(2), ls.ph(3))
	if _, err := ls.db.ExecContext(ctx, q, b.UUID, b.BackupDatetime, payload); err != nil {
		return fmt.Errorf("writing language model backup: %w", err)
	}
	return nil
}

func (ls *MorphemeLanguageModelStore) History(ctx context.Context, idOrUUID string) (domain.MorphemeLanguageModelHistory, error) {
	var current *domain.MorphemeLanguageModel
	var err error
	if id, parseErr := strconv.ParseInt(idOrUUID, 10, 64); parseErr == nil {
		current, err = ls.Get(ctx, id)
	}
	if current == nil {
		current, err = ls.GetByUUID(ctx, idOrUUID)
	}
	if err != nil {
		return domain.MorphemeLanguageModelHistory{}, err
	}
	uuidStr := idOrUUID
	if current != nil {
		uuidStr = current.UUID
	}
	rows, err := ls.db.QueryContext(ctx, `SELECT uuid, backup_datetime, morpheme_language_model
		FROM morpheme_language_models_backups WHERE uuid = `+ls.ph(1), uuidStr)
	if err != nil {
		return domain.MorphemeLanguageModelHistory{}, fmt.Errorf("querying language model backups: %w", err)
	}
	defer rows.Close()
	var backups []domain.MorphemeLanguageModelBackup
	for rows.Next() {
		var b domain.MorphemeLanguageModelBackup
		var payload []byte
		if err := rows.Scan(&b.UUID, &b.BackupDatetime, &payload); err != nil {
			return domain.MorphemeLanguageModelHistory{}, fmt.Errorf("scanning language model backup: %w", err)
		}
		if err := json.Unmarshal(payload, &b.MorphemeLanguageModel); err != nil {
			return domain.MorphemeLanguageModelHistory{}, fmt.Errorf("unmarshaling language model backup: %w", err)
		}
		backups = append(backups, b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].BackupDatetime.After(backups[j].BackupDatetime) })
	if current == nil && len(backups) == 0 {
		return domain.MorphemeLanguageModelHistory{}, &domain.NotFoundError{Kind: "MorphemeLanguageModel", ID: idOrUUID}
	}
	return backup.BuildMorphemeLanguageModelHistory(current, backups), nil
}
