package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dativebase/old/pkg/backup"
	"github.com/dativebase/old/pkg/domain"
)

// CorpusStore persists Corpus rows. Membership resolution (FormIDs from
// either FormSearchID or the explicit Content id-list) is pkg/corpus's
// job; this store just persists whatever FormIDs the caller already
// resolved.
type CorpusStore struct{ *Store }

func NewCorpusStore(s *Store) *CorpusStore { return &CorpusStore{s} }

func (cs *CorpusStore) span(ctx context.Context, op string, id interface{}) (context.Context, trace.Span) {
	return tracer.Start(ctx, "CorpusStore."+op, trace.WithAttributes(
		attribute.String("db.system", cs.dialect.Name()),
		attribute.String("db.table", "corpora"),
		attribute.String("old.corpus_id", fmt.Sprintf("%v", id)),
	))
}

func (cs *CorpusStore) Create(ctx context.Context, c *domain.Corpus) error {
	ctx, span := cs.span(ctx, "Create", "new")
	defer span.End()

	now := cs.clock()
	if c.DatetimeEntered.IsZero() {
		c.DatetimeEntered = now
	}
	c.DatetimeModified = now

	formIDs, tagIDs, err := marshalCorpusSets(c)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO corpora (uuid, name, description, form_search_id,
			content, forms, tag_ids, enterer_id, datetime_entered, datetime_modified)
		VALUES (%s,%s,%s,%s,%s,%s,%s,%s,%s,%s) RETURNING id`,
		cs.ph(1), cs.ph(2), cs.ph(3), cs.ph(4), cs.ph(5), cs.ph(6), cs.ph(7), cs.ph(8), cs.ph(9), cs.ph(10))
	err = cs.db.QueryRowContext(ctx, q, c.UUID, c.Name, c.Description, c.FormSearchID,
		c.Content, formIDs, tagIDs, c.EntererID, c.DatetimeEntered, c.DatetimeModified).Scan(&c.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating corpus: %w", err)
	}
	return nil
}

func (cs *CorpusStore) Get(ctx context.Context, id int64) (*domain.Corpus, error) {
	return cs.scanOne(ctx, "id = "+cs.ph(1), id)
}

func (cs *CorpusStore) GetByUUID(ctx context.Context, uuid string) (*domain.Corpus, error) {
	return cs.scanOne(ctx, "uuid = "+cs.ph(1), uuid)
}

// List returns every corpus, ordered by id.
func (cs *CorpusStore) List(ctx context.Context) ([]*domain.Corpus, error) {
	rows, err := cs.db.QueryContext(ctx, `SELECT id, uuid, name, description, form_search_id,
			content, forms, tag_ids, enterer_id, datetime_entered, datetime_modified
		FROM corpora ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing corpora: %w", err)
	}
	defer rows.Close()

	var out []*domain.Corpus
	for rows.Next() {
		var c domain.Corpus
		var formIDs, tagIDs []byte
		if err := rows.Scan(&c.ID, &c.UUID, &c.Name, &c.Description, &c.FormSearchID, &c.Content,
			&formIDs, &tagIDs, &c.EntererID, &c.DatetimeEntered, &c.DatetimeModified); err != nil {
			return nil, fmt.Errorf("scanning corpus row: %w", err)
		}
		json.Unmarshal(formIDs, &c.FormIDs)
		json.Unmarshal(tagIDs, &c.TagIDs)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (cs *CorpusStore) scanOne(ctx context.Context, where string, arg interface{}) (*domain.Corpus, error) {
	row := cs.db.QueryRowContext(ctx, `SELECT id, uuid, name, description, form_search_id,
			content, forms, tag_ids, enterer_id, datetime_entered, datetime_modified
		FROM corpora WHERE `+where, arg)
	var c domain.Corpus
	var formIDs, tagIDs []byte
	err := row.Scan(&c.ID, &c.UUID, &c.Name, &c.Description, &c.FormSearchID, &c.Content,
		&formIDs, &tagIDs, &c.EntererID, &c.DatetimeEntered, &c.DatetimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}
	json.Unmarshal(formIDs, &c.FormIDs)
	json.Unmarshal(tagIDs, &c.TagIDs)
	return &c, nil
}

func (cs *CorpusStore) Update(ctx context.Context, next *domain.Corpus) error {
	ctx, span := cs.span(ctx, "Update", next.ID)
	defer span.End()

	current, err := cs.Get(ctx, next.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Corpus", ID: next.ID}
	}
	comparable := *next
	comparable.DatetimeModified = current.DatetimeModified
	if backup.Identical(comparable, *current) {
		return &domain.NotNewError{}
	}
	if err := cs.writeBackup(ctx, current); err != nil {
		return err
	}
	next.DatetimeEntered = current.DatetimeEntered
	next.DatetimeModified = cs.clock()

	formIDs, tagIDs, err := marshalCorpusSets(next)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE corpora SET name=%s, description=%s, form_search_id=%s,
			content=%s, forms=%s, tag_ids=%s, datetime_modified=%s WHERE id=%s`,
		cs.ph(1), cs.ph(2), cs.ph(3), cs.ph(4), cs.ph(5), cs.ph(6), cs.ph(7), cs.ph(8))
	_, err = cs.db.ExecContext(ctx, q, next.Name, next.Description, next.FormSearchID,
		next.Content, formIDs, tagIDs, next.DatetimeModified, next.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("updating corpus %d: %w", next.ID, err)
	}
	return nil
}

func (cs *CorpusStore) Delete(ctx context.Context, id int64) error {
	ctx, span := cs.span(ctx, "Delete", id)
	defer span.End()
	current, err := cs.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Corpus", ID: id}
	}
	if err := cs.writeBackup(ctx, current); err != nil {
		return err
	}
	if _, err := cs.db.ExecContext(ctx, "DELETE FROM corpora WHERE id = "+cs.ph(1), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting corpus %d: %w", id, err)
	}
	return nil
}

func (cs *CorpusStore) writeBackup(ctx context.Context, c *domain.Corpus) error {
	b := backup.NewCorpusBackup(c, cs.clock())
	payload, err := json.Marshal(b.Corpus)
	if err != nil {
		return fmt.Errorf("marshaling corpus backup: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO corpora_backups (uuid, backup_datetime, corpus)
		VALUES (%s, %s, %s)`, cs.ph(1), cs.ph(2), cs.ph(3))
	if _, err := cs.db.ExecContext(ctx, q, b.UUID, b.BackupDatetime, payload); err != nil {
		return fmt.Errorf("writing corpus backup: %w", err)
	}
	return nil
}

func (cs *CorpusStore) History(ctx context.Context, idOrUUID string) (domain.CorpusHistory, error) {
	var current *domain.Corpus
	var err error
	if id, parseErr := strconv.ParseInt(idOrUUID, 10, 64); parseErr == nil {
		current, err = cs.Get(ctx, id)
	}
	if current == nil {
		current, err = cs.GetByUUID(ctx, idOrUUID)
	}
	if err != nil {
		return domain.CorpusHistory{}, err
	}
	uuid := idOrUUID
	if current != nil {
		uuid = current.UUID
	}
	rows, err := cs.db.QueryContext(ctx, `SELECT uuid, backup_datetime, corpus
		FROM corpora_backups WHERE uuid = `+cs.ph(1), uuid)
	if err != nil {
		return domain.CorpusHistory{}, fmt.Errorf("querying corpus backups: %w", err)
	}
	defer rows.Close()
	var backups []domain.CorpusBackup
	for rows.Next() {
		var b domain.CorpusBackup
		var payload []byte
		if err := rows.Scan(&b.UUID, &b.BackupDatetime, &payload); err != nil {
			return domain.CorpusHistory{}, fmt.Errorf("scanning corpus backup: %w", err)
		}
		if err := json.Unmarshal(payload, &b.Corpus); err != nil {
			return domain.CorpusHistory{}, fmt.Errorf("unmarshaling corpus backup: %w", err)
		}
		backups = append(backups, b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].BackupDatetime.After(backups[j].BackupDatetime) })
	if current == nil && len(backups) == 0 {
		return domain.CorpusHistory{}, &domain.NotFoundError{Kind: "Corpus", ID: idOrUUID}
	}
	return backup.BuildCorpusHistory(current, backups), nil
}

func marshalCorpusSets(c *domain.Corpus) (formIDs, tagIDs []byte, err error) {
	if formIDs, err = json.Marshal(c.FormIDs); err != nil {
		return
	}
	if tagIDs, err = json.Marshal(c.TagIDs); err != nil {
		return
	}
	return
}
