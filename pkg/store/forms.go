package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dativebase/old/pkg/backup"
	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/query"
)

// sqliteMaxParams mirrors query.SQLiteMaxParams for batching bulk
// lookups against SQLite's host-parameter cap.
const sqliteMaxParams = query.SQLiteMaxParams

// FormStore persists Form rows with backup-on-mutate and vacuous-update
// rejection.
type FormStore struct{ *Store }

// NewFormStore builds a FormStore over s.
func NewFormStore(s *Store) *FormStore { return &FormStore{s} }

func (fs *FormStore) span(ctx context.Context, op string, id interface{}) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "FormStore."+op,
		trace.WithAttributes(
			attribute.String("db.system", fs.dialect.Name()),
			attribute.String("db.table", "forms"),
			attribute.String("old.form_id", fmt.Sprintf("%v", id)),
		),
	)
	return ctx, span
}

// Create inserts f, stamping UUID/DatetimeEntered/DatetimeModified if
// unset.
func (fs *FormStore) Create(ctx context.Context, f *domain.Form) error {
	ctx, span := fs.span(ctx, "Create", "new")
	defer span.End()

	now := fs.clock()
	if f.DatetimeEntered.IsZero() {
		f.DatetimeEntered = now
	}
	f.DatetimeModified = now

	translations, tagIDs, fileIDs, breakIDs, glossIDs, err := marshalFormCollections(f)
	if err != nil {
		span.RecordError(err)
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO forms (uuid, transcription, phonetic_transcription,
			narrow_phonetic_transcription, morpheme_break, morpheme_gloss,
			break_gloss_category, grammaticality, syntactic_category_id,
			translations, tag_ids, file_ids, elicitor_id, enterer_id,
			verifier_id, modifier_id, date_elicited, datetime_entered,
			datetime_modified, morpheme_break_ids, morpheme_gloss_ids)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		RETURNING id`,
		fs.ph(1), fs.ph(2), fs.ph(3), fs.ph(4), fs.ph(5), fs.ph(6), fs.ph(7), fs.ph(8),
		fs.ph(9), fs.ph(10), fs.ph(11), fs.ph(12), fs.ph(13), fs.ph(14), fs.ph(15), fs.ph(16),
		fs.ph(17), fs.ph(18), fs.ph(19), fs.ph(20), fs.ph(21))

	err = fs.db.QueryRowContext(ctx, query,
		f.UUID, f.Transcription, f.PhoneticTranscription, f.NarrowPhoneticTranscription,
		f.MorphemeBreak, f.MorphemeGloss, f.BreakGlossCategory, f.Grammaticality,
		f.SyntacticCategoryID, translations, tagIDs, fileIDs, f.ElicitorID, f.EntererID,
		f.VerifierID, f.ModifierID, f.DateElicited, f.DatetimeEntered, f.DatetimeModified,
		breakIDs, glossIDs,
	).Scan(&f.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("creating form: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Get loads a form by id.
func (fs *FormStore) Get(ctx context.Context, id int64) (*domain.Form, error) {
	ctx, span := fs.span(ctx, "Get", id)
	defer span.End()
	f, err := fs.scanOne(ctx, "id = "+fs.ph(1), id)
	if err != nil {
		span.RecordError(err)
	}
	return f, err
}

// GetByUUID loads a form by UUID, used by History once the live id no
// longer resolves.
func (fs *FormStore) GetByUUID(ctx context.Context, uuid string) (*domain.Form, error) {
	ctx, span := fs.span(ctx, "GetByUUID", uuid)
	defer span.End()
	f, err := fs.scanOne(ctx, "uuid = "+fs.ph(1), uuid)
	if err != nil {
		span.RecordError(err)
	}
	return f, err
}

// GetByIDs loads forms by id, batching in chunks of at most
// query.SQLiteMaxParams placeholders when the backing dialect is
// SQLite, and returns them in the same order as ids (missing ids are
// simply omitted from the result).
func (fs *FormStore) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Form, error) {
	ctx, span := fs.span(ctx, "GetByIDs", len(ids))
	defer span.End()

	chunkSize := len(ids)
	if fs.dialect.Name() == "sqlite" && chunkSize > sqliteMaxParams {
		chunkSize = sqliteMaxParams
	}
	if chunkSize == 0 {
		return nil, nil
	}

	byID := make(map[int64]*domain.Form, len(ids))
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fs.ph(i + 1)
			args[i] = id
		}

		rows, err := fs.db.QueryContext(ctx, `
			SELECT id, uuid, transcription, phonetic_transcription,
				narrow_phonetic_transcription, morpheme_break, morpheme_gloss,
				break_gloss_category, grammaticality, syntactic_category_id,
				translations, tag_ids, file_ids, elicitor_id, enterer_id,
				verifier_id, modifier_id, date_elicited, datetime_entered,
				datetime_modified, morpheme_break_ids, morpheme_gloss_ids
			FROM forms WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("querying forms by id: %w", err)
		}
		if err := scanFormRows(rows, byID); err != nil {
			return nil, err
		}
	}

	out := make([]*domain.Form, 0, len(ids))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// SearchIDs compiles expr against schema's Form model and returns the
// matching form ids, used by the Corpus Engine's form_search membership
// resolution and by the Form search endpoint.
func (fs *FormStore) SearchIDs(ctx context.Context, schema *query.Schema, expr query.Expr) ([]int64, error) {
	ctx, span := fs.span(ctx, "SearchIDs", "search")
	defer span.End()

	cq, err := query.Compile(schema, fs.dialect, "Form", expr)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sqlStr := "SELECT DISTINCT t.id FROM " + cq.From
	for _, j := range cq.Joins {
		sqlStr += " " + j
	}
	if cq.Where != "" {
		sqlStr += " WHERE " + cq.Where
	}

	rows, err := fs.db.QueryContext(ctx, sqlStr, cq.Args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("executing form search: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning form search id: %w", err)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, rows.Err()
}

func scanFormRows(rows *sql.Rows, byID map[int64]*domain.Form) error {
	defer rows.Close()
	for rows.Next() {
		var f domain.Form
		var translations, tagIDs, fileIDs, breakIDs, glossIDs []byte
		if err := rows.Scan(&f.ID, &f.UUID, &f.Transcription, &f.PhoneticTranscription,
			&f.NarrowPhoneticTranscription, &f.MorphemeBreak, &f.MorphemeGloss,
			&f.BreakGlossCategory, &f.Grammaticality, &f.SyntacticCategoryID,
			&translations, &tagIDs, &fileIDs, &f.ElicitorID, &f.EntererID,
			&f.VerifierID, &f.ModifierID, &f.DateElicited, &f.DatetimeEntered,
			&f.DatetimeModified, &breakIDs, &glossIDs); err != nil {
			return fmt.Errorf("scanning form row: %w", err)
		}
		if err := unmarshalFormCollections(&f, translations, tagIDs, fileIDs, breakIDs, glossIDs); err != nil {
			return err
		}
		byID[f.ID] = &f
	}
	return rows.Err()
}

func (fs *FormStore) scanOne(ctx context.Context, where string, arg interface{}) (*domain.Form, error) {
	row := fs.db.QueryRowContext(ctx, `
		SELECT id, uuid, transcription, phonetic_transcription,
			narrow_phonetic_transcription, morpheme_break, morpheme_gloss,
			break_gloss_category, grammaticality, syntactic_category_id,
			translations, tag_ids, file_ids, elicitor_id, enterer_id,
			verifier_id, modifier_id, date_elicited, datetime_entered,
			datetime_modified, morpheme_break_ids, morpheme_gloss_ids
		FROM forms WHERE `+where, arg)
	return scanForm(row)
}

func scanForm(row *sql.Row) (*domain.Form, error) {
	var f domain.Form
	var translations, tagIDs, fileIDs, breakIDs, glossIDs []byte
	err := row.Scan(&f.ID, &f.UUID, &f.Transcription, &f.PhoneticTranscription,
		&f.NarrowPhoneticTranscription, &f.MorphemeBreak, &f.MorphemeGloss,
		&f.BreakGlossCategory, &f.Grammaticality, &f.SyntacticCategoryID,
		&translations, &tagIDs, &fileIDs, &f.ElicitorID, &f.EntererID,
		&f.VerifierID, &f.ModifierID, &f.DateElicited, &f.DatetimeEntered,
		&f.DatetimeModified, &breakIDs, &glossIDs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning form: %w", err)
	}
	if err := unmarshalFormCollections(&f, translations, tagIDs, fileIDs, breakIDs, glossIDs); err != nil {
		return nil, err
	}
	return &f, nil
}

// Update loads the current row, rejects an unchanged submission with
// domain.NotNewError, otherwise backs up the current state and applies
// next.
func (fs *FormStore) Update(ctx context.Context, next *domain.Form) error {
	ctx, span := fs.span(ctx, "Update", next.ID)
	defer span.End()

	current, err := fs.Get(ctx, next.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Form", ID: next.ID}
	}

	comparable := *next
	comparable.DatetimeModified = current.DatetimeModified
	if backup.Identical(comparable, *current) {
		return &domain.NotNewError{}
	}

	now := fs.clock()
	if err := fs.writeBackup(ctx, current); err != nil {
		return err
	}
	next.DatetimeEntered = current.DatetimeEntered
	next.DatetimeModified = now

	translations, tagIDs, fileIDs, breakIDs, glossIDs, err := marshalFormCollections(next)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`
		UPDATE forms SET transcription=%s, phonetic_transcription=%s,
			narrow_phonetic_transcription=%s, morpheme_break=%s, morpheme_gloss=%s,
			break_gloss_category=%s, grammaticality=%s, syntactic_category_id=%s,
			translations=%s, tag_ids=%s, file_ids=%s, elicitor_id=%s, enterer_id=%s,
			verifier_id=%s, modifier_id=%s, date_elicited=%s, datetime_modified=%s,
			morpheme_break_ids=%s, morpheme_gloss_ids=%s
		WHERE id=%s`,
		fs.ph(1), fs.ph(2), fs.ph(3), fs.ph(4), fs.ph(5), fs.ph(6), fs.ph(7), fs.ph(8),
		fs.ph(9), fs.ph(10), fs.ph(11), fs.ph(12), fs.ph(13), fs.ph(14), fs.ph(15),
		fs.ph(16), fs.ph(17), fs.ph(18), fs.ph(19), fs.ph(20))

	_, err = fs.db.ExecContext(ctx, q,
		next.Transcription, next.PhoneticTranscription, next.NarrowPhoneticTranscription,
		next.MorphemeBreak, next.MorphemeGloss, next.BreakGlossCategory, next.Grammaticality,
		next.SyntacticCategoryID, translations, tagIDs, fileIDs, next.ElicitorID, next.EntererID,
		next.VerifierID, next.ModifierID, next.DateElicited, next.DatetimeModified,
		breakIDs, glossIDs, next.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("updating form %d: %w", next.ID, err)
	}
	return nil
}

// Delete backs up and removes the live row. The backup row is the only
// surviving trace; History resolves against it by UUID thereafter.
func (fs *FormStore) Delete(ctx context.Context, id int64) error {
	ctx, span := fs.span(ctx, "Delete", id)
	defer span.End()

	current, err := fs.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return &domain.NotFoundError{Kind: "Form", ID: id}
	}
	if err := fs.writeBackup(ctx, current); err != nil {
		return err
	}
	if _, err := fs.db.ExecContext(ctx, "DELETE FROM forms WHERE id = "+fs.ph(1), id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("deleting form %d: %w", id, err)
	}
	return nil
}

func (fs *FormStore) writeBackup(ctx context.Context, f *domain.Form) error {
	b := backup.NewFormBackup(f, fs.clock())
	payload, err := json.Marshal(b.Form)
	if err != nil {
		return fmt.Errorf("marshaling form backup: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO forms_backups (uuid, modifier_id, backup_datetime, form)
		VALUES (%s, %s, %s, %s)`, fs.ph(1), fs.ph(2), fs.ph(3), fs.ph(4))
	if _, err := fs.db.ExecContext(ctx, q, b.UUID, b.ModifierID, b.BackupDatetime, payload); err != nil {
		return fmt.Errorf("writing form backup: %w", err)
	}
	return nil
}

// History resolves idOrUUID (a numeric id, or a UUID once the live row
// no longer exists) and returns the current row (nil if deleted) plus
// all backups newest-first.
func (fs *FormStore) History(ctx context.Context, idOrUUID string) (domain.FormHistory, error) {
	var current *domain.Form
	var err error
	if id, parseErr := strconv.ParseInt(idOrUUID, 10, 64); parseErr == nil {
		current, err = fs.Get(ctx, id)
	}
	if current == nil {
		current, err = fs.GetByUUID(ctx, idOrUUID)
	}
	if err != nil {
		return domain.FormHistory{}, err
	}

	uuid := idOrUUID
	if current != nil {
		uuid = current.UUID
	}

	rows, err := fs.db.QueryContext(ctx, `
		SELECT uuid, modifier_id, backup_datetime, form
		FROM forms_backups WHERE uuid = `+fs.ph(1), uuid)
	if err != nil {
		return domain.FormHistory{}, fmt.Errorf("querying form backups: %w", err)
	}
	defer rows.Close()

	var backups []domain.FormBackup
	for rows.Next() {
		var b domain.FormBackup
		var payload []byte
		if err := rows.Scan(&b.UUID, &b.ModifierID, &b.BackupDatetime, &payload); err != nil {
			return domain.FormHistory{}, fmt.Errorf("scanning form backup: %w", err)
		}
		if err := json.Unmarshal(payload, &b.Form); err != nil {
			return domain.FormHistory{}, fmt.Errorf("unmarshaling form backup: %w", err)
		}
		backups = append(backups, b)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].BackupDatetime.After(backups[j].BackupDatetime) })

	if current == nil && len(backups) == 0 {
		return domain.FormHistory{}, &domain.NotFoundError{Kind: "Form", ID: idOrUUID}
	}
	return backup.BuildFormHistory(current, backups), nil
}

func marshalFormCollections(f *domain.Form) (translations, tagIDs, fileIDs, breakIDs, glossIDs []byte, err error) {
	if translations, err = json.Marshal(f.Translations); err != nil {
		return
	}
	if tagIDs, err = json.Marshal(f.TagIDs); err != nil {
		return
	}
	if fileIDs, err = json.Marshal(f.FileIDs); err != nil {
		return
	}
	if breakIDs, err = json.Marshal(f.MorphemeBreakIDs); err != nil {
		return
	}
	if glossIDs, err = json.Marshal(f.MorphemeGlossIDs); err != nil {
		return
	}
	return
}

func unmarshalFormCollections(f *domain.Form, translations, tagIDs, fileIDs, breakIDs, glossIDs []byte) error {
	if err := json.Unmarshal(translations, &f.Translations); err != nil {
		return fmt.Errorf("unmarshaling translations: %w", err)
	}
	if err := json.Unmarshal(tagIDs, &f.TagIDs); err != nil {
		return fmt.Errorf("unmarshaling tag_ids: %w", err)
	}
	if err := json.Unmarshal(fileIDs, &f.FileIDs); err != nil {
		return fmt.Errorf("unmarshaling file_ids: %w", err)
	}
	if len(breakIDs) > 0 {
		if err := json.Unmarshal(breakIDs, &f.MorphemeBreakIDs); err != nil {
			return fmt.Errorf("unmarshaling morpheme_break_ids: %w", err)
		}
	}
	if len(glossIDs) > 0 {
		if err := json.Unmarshal(glossIDs, &f.MorphemeGlossIDs); err != nil {
			return fmt.Errorf("unmarshaling morpheme_gloss_ids: %w", err)
		}
	}
	return nil
}
