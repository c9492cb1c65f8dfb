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

// CollectionStore persists Collection rows and cascades reference
// removal into other collections when a Form or Collection they
// reference is deleted, mirroring pkg/propagator's contract.
type CollectionStore struct {
	*Store
	propagator propagatorHook
}

// propagatorHook is the subset of *propagator.Propagator CollectionStore
// needs; declared locally so this package does not import pkg/propagator
// (which itself may need the store interfaces this package exposes,
// avoiding an import cycle).
type propagatorHook interface {
	OnFormDeleted(formID int64, candidates []*domain.Collection) []*domain.Collection
	OnCollectionDeleted(collectionID int64, candidates []*domain.Collection) []*domain.Collection
}

// NewCollectionStore builds a CollectionStore. prop may be nil, in which
// case cascaded edits on Form/Collection deletion are skipped (the
// caller is expected to run them through a propagator before deleting).
func NewCollectionStore(s *Store, prop propagatorHook) *CollectionStore {
	return &CollectionStore{Store: s, propagator: prop}
}

// SetPropagator wires the cascade hook after construction, for callers
// that must build the CollectionStore before the propagator that wraps
// it (the propagator needs a CollectionFetcher over this same store).
func (cs *CollectionStore) SetPropagator(prop propagatorHook) {
	cs.propagator = prop
}

func (cs *CollectionStore) span(ctx context.Context, op string, id interface{}) (context.Context, trace.Span) {
	return tracer.Start(ctx, "CollectionStore."+op, trace.WithAttributes(
		attribute.String("db.system", cs.dialect.Name()),
		attribute.String("db.table", "collections"),
		attribute.String("old.collection_id", fmt.Sprintf("%v", id)),
	))
}

// Create inserts c, stamping timestamps. Callers run pkg/propagator's
// Propagate against c before calling Create so ContentsUnpacked/FormIDs/
// HTML are already populated.
func (cs *CollectionStore) Create(ctx context.Context, c *domain.Collection) error {
	ctx, span := cs.span(ctx, "Create", "new")
	defer span.End()

	now := cs.clock()
	if c.DatetimeEntered.IsZero() {
		c.DatetimeEntered = now
	}
	c.DatetimeModified = now

	formIDs, tagIDs, fileIDs, err := marshalCollectionSets(c)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`INSERT INTO collections (uuid, name, type, url, description,
			markup_language, contents, contents_unpacked, html, forms, tag_ids, file_ids,
			date_elicited, elicitor_id, enterer_id, speaker_id, source_id,
			datetime_entered, datetime_modified)
		VALUES (%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s) RETURNING id`,
		cs.ph(1), cs.ph(2), cs.ph(3), cs.ph(4), cs.ph(5), cs.ph(6), cs.ph(7), cs.ph(8),
		cs.ph(9), cs.ph(10), cs.ph(11), cs.ph(12), cs.ph(13), cs.ph(14), cs.ph(15),
		cs.ph(16), cs.ph(17), cs.ph(18), cs.ph(19))

	err = cs.db.QueryRowContext(ctx, q, c.UUID, c.Name, c.Type, c.URL, c.Description,
		c.MarkupLanguage, c.Contents, c.ContentsUnpacked, c.HTML, formIDs, tagIDs, fileIDs,
		c.DateElicited, c.ElicitorID, c.EntererID, c.SpeakerID, c.SourceID,
		c.DatetimeEntered, c.DatetimeModified).Scan(&c.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

func (cs *CollectionStore) Get(ctx context.Context, id int64) (*domain.Collection, error) {
	return cs.scanOne(ctx, "id = "+cs.ph(1), id)
}

func (cs *CollectionStore) GetByUUID(ctx context.Context, uuid string) (*domain.Collection, error) {
	return cs.scanOne(ctx, "uuid = "+cs.ph(1), uuid)
}

func (cs *CollectionStore) scanOne(ctx context.Context, where string, arg interface{}) (*domain.Collection, error) {
	row := cs.db.QueryRowContext(ctx, `SELECT id, uuid, name, type, url, description,
			markup_language, contents, contents_unpacked, html, forms, tag_ids, file_ids,
			date_elicited, elicitor_id, enterer_id, speaker_id, source_id,
			datetime_entered, datetime_modified
		FROM collections WHERE `+where, arg)
	return scanCollection(row)
}

func scanCollection(row *sql.Row) (*domain.Collection, error) {
	var c domain.Collection
	var formIDs, tagIDs, fileIDs []byte
	err := row.Scan(&c.ID, &c.UUID, &c.Name, &c.Type, &c.URL, &c.Description,
		&c.MarkupLanguage, &c.Contents, &c.ContentsUnpacked, &c.HTML, &formIDs, &tagIDs, &fileIDs,
		&c.DateElicited, &c.ElicitorID, &c.EntererID, &c.SpeakerID, &c.SourceID,
		&c.DatetimeEntered, &c.DatetimeModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning collection: %w", err)
	}
	if err := json.Unmarshal(formIDs, &c.FormIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling forms: %w", err)
	}
	if err := json.Unmarshal(tagIDs, &c.TagIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling tag_ids: %w", err)
	}
	if err := json.Unmarshal(fileIDs, &c.FileIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling file_ids: %w", err)
	}
	return &c, nil
}

// Update loads the current row, rejects a no-op submission, else backs
// up and applies next (already run through pkg/propagator by the
// caller).
func (cs *CollectionStore) Update(ctx context.Context, next *domain.Collection) error {
	ctx, span := cs.span(ctx, "Update", next.ID)
	defer span.End()

	current, err := cs.Get(ctx, next.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Collection", ID: next.ID}
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

	formIDs, tagIDs, fileIDs, err := marshalCollectionSets(next)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE collections SET name=%s, type=%s, url=%s, description=%s,
			markup_language=%s, contents=%s, contents_unpacked=%s, html=%s, forms=%s,
			tag_ids=%s, file_ids=%s, date_elicited=%s, elicitor_id=%s, enterer_id=%s,
			speaker_id=%s, source_id=%s, datetime_modified=%s WHERE id=%s`,
		cs.ph(1), cs.ph(2), cs.ph(3), cs.ph(4), cs.ph(5), cs.ph(6), cs.ph(7), cs.ph(8),
		cs.ph(9), cs.ph(10), cs.ph(11), cs.ph(12), cs.ph(13), cs.ph(14), cs.ph(15),
		cs.ph(16), cs.ph(17), cs.ph(18))
	_, err = cs.db.ExecContext(ctx, q, next.Name, next.Type, next.URL, next.Description,
		next.MarkupLanguage, next.Contents, next.ContentsUnpacked, next.HTML, formIDs,
		tagIDs, fileIDs, next.DateElicited, next.ElicitorID, next.EntererID,
		next.SpeakerID, next.SourceID, next.DatetimeModified, next.ID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("updating collection %d: %w", next.ID, err)
	}
	return nil
}

// Delete backs up and removes c, then cascades: every other live
// collection referencing c's id has that token stripped and is itself
// backed up and re-saved.
func (cs *CollectionStore) Delete(ctx context.Context, id int64) error {
	ctx, span := cs.span(ctx, "Delete", id)
	defer span.End()

	current, err := cs.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Collection", ID: id}
	}
	if err := cs.writeBackup(ctx, current); err != nil {
		return err
	}
	if _, err := cs.db.ExecContext(ctx, "DELETE FROM collections WHERE id = "+cs.ph(1), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting collection %d: %w", id, err)
	}

	if cs.propagator == nil {
		return nil
	}
	others, err := cs.listAll(ctx)
	if err != nil {
		return err
	}
	for _, affected := range cs.propagator.OnCollectionDeleted(id, others) {
		if err := cs.Update(ctx, affected); err != nil {
			return fmt.Errorf("cascading delete of collection %d into collection %d: %w", id, affected.ID, err)
		}
	}
	return nil
}

// OnFormDeleted strips form[<id>] references to formID from every live
// collection that mentions it and re-saves each, called by the Form
// store's Delete after the form row itself is removed.
func (cs *CollectionStore) OnFormDeleted(ctx context.Context, formID int64) error {
	if cs.propagator == nil {
		return nil
	}
	all, err := cs.listAll(ctx)
	if err != nil {
		return err
	}
	for _, affected := range cs.propagator.OnFormDeleted(formID, all) {
		if err := cs.Update(ctx, affected); err != nil {
			return fmt.Errorf("cascading delete of form %d into collection %d: %w", formID, affected.ID, err)
		}
	}
	return nil
}

// List returns every collection, ordered by id.
func (cs *CollectionStore) List(ctx context.Context) ([]*domain.Collection, error) {
	return cs.listAll(ctx)
}

func (cs *CollectionStore) listAll(ctx context.Context) ([]*domain.Collection, error) {
	rows, err := cs.db.QueryContext(ctx, `SELECT id, uuid, name, type, url, description,
			markup_language, contents, contents_unpacked, html, forms, tag_ids, file_ids,
			date_elicited, elicitor_id, enterer_id, speaker_id, source_id,
			datetime_entered, datetime_modified FROM collections`)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer rows.Close()

	var out []*domain.Collection
	for rows.Next() {
		var c domain.Collection
		var formIDs, tagIDs, fileIDs []byte
		if err := rows.Scan(&c.ID, &c.UUID, &c.Name, &c.Type, &c.URL, &c.Description,
			&c.MarkupLanguage, &c.Contents, &c.ContentsUnpacked, &c.HTML, &formIDs, &tagIDs,
			&fileIDs, &c.DateElicited, &c.ElicitorID, &c.EntererID, &c.SpeakerID, &c.SourceID,
			&c.DatetimeEntered, &c.DatetimeModified); err != nil {
			return nil, fmt.Errorf("scanning collection row: %w", err)
		}
		json.Unmarshal(formIDs, &c.FormIDs)
		json.Unmarshal(tagIDs, &c.TagIDs)
		json.Unmarshal(fileIDs, &c.FileIDs)
		out = append(out, &c)
	}
	return out, nil
}

func (cs *CollectionStore) writeBackup(ctx context.Context, c *domain.Collection) error {
	b := backup.NewCollectionBackup(c, cs.clock())
	payload, err := json.Marshal(b.Collection)
	if err != nil {
		return fmt.Errorf("marshaling collection backup: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO collections_backups (uuid, backup_datetime, collection)
		VALUES (%s, %s, %s)`, cs.ph(1), cs.ph(2), cs.ph(3))
	if _, err := cs.db.ExecContext(ctx, q, b.UUID, b.BackupDatetime, payload); err != nil {
		return fmt.Errorf("writing collection backup: %w", err)
	}
	return nil
}

// History resolves idOrUUID against the live row, or the backup table
// alone once it has been deleted.
func (cs *CollectionStore) History(ctx context.Context, idOrUUID string) (domain.CollectionHistory, error) {
	var current *domain.Collection
	var err error
	if id, parseErr := strconv.ParseInt(idOrUUID, 10, 64); parseErr == nil {
		current, err = cs.Get(ctx, id)
	}
	if current == nil {
		current, err = cs.GetByUUID(ctx, idOrUUID)
	}
	if err != nil {
		return domain.CollectionHistory{}, err
	}
	uuid := idOrUUID
	if current != nil {
		uuid = current.UUID
	}

	rows, err := cs.db.QueryContext(ctx, `SELECT uuid, backup_datetime, collection
		FROM collections_backups WHERE uuid = `+cs.ph(1), uuid)
	if err != nil {
		return domain.CollectionHistory{}, fmt.Errorf("querying collection backups: %w", err)
	}
	defer rows.Close()

	var backups []domain.CollectionBackup
	for rows.Next() {
		var b domain.CollectionBackup
		var payload []byte
		if err := rows.Scan(&b.UUID, &b.BackupDatetime, &payload); err != nil {
			return domain.CollectionHistory{}, fmt.Errorf("scanning collection backup: %w", err)
		}
		if err := json.Unmarshal(payload, &b.Collection); err != nil {
			return domain.CollectionHistory{}, fmt.Errorf("unmarshaling collection backup: %w", err)
		}
		backups = append(backups, b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].BackupDatetime.After(backups[j].BackupDatetime) })

	if current == nil && len(backups) == 0 {
		return domain.CollectionHistory{}, &domain.NotFoundError{Kind: "Collection", ID: idOrUUID}
	}
	return backup.BuildCollectionHistory(current, backups), nil
}

func marshalCollectionSets(c *domain.Collection) (formIDs, tagIDs, fileIDs []byte, err error) {
	if formIDs, err = json.Marshal(c.FormIDs); err != nil {
		return
	}
	if tagIDs, err = json.Marshal(c.TagIDs); err != nil {
		return
	}
	if fileIDs, err = json.Marshal(c.FileIDs); err != nil {
		return
	}
	return
}
