package backup

import (
	"reflect"
	"time"

	"github.com/dativebase/old/pkg/domain"
)

// Identical reports whether proposed and current represent the same
// submission, ignoring server-assigned bookkeeping fields the caller has
// already zeroed out (datetime_modified and friends). Used to reject a
// no-op update with domain.NotNewError.
func Identical(proposed, current interface{}) bool {
	return reflect.DeepEqual(proposed, current)
}

// Clock returns the current time. It exists so request handlers and
// store implementations can stamp BackupDatetime and DatetimeModified
// from a single seam tests can override.
type Clock func() time.Time

// RealClock is the production Clock.
func RealClock() time.Time { return time.Now().UTC() }

// NewFormBackup snapshots a Form into a FormBackup row at t.
func NewFormBackup(f *domain.Form, t time.Time) domain.FormBackup {
	return domain.FormBackup{UUID: f.UUID, Form: *f, BackupDatetime: t, ModifierID: f.ModifierID}
}

// NewCollectionBackup snapshots a Collection into a CollectionBackup row at t.
func NewCollectionBackup(c *domain.Collection, t time.Time) domain.CollectionBackup {
	return domain.CollectionBackup{UUID: c.UUID, Collection: *c, BackupDatetime: t}
}

// NewCorpusBackup snapshots a Corpus into a CorpusBackup row at t.
func NewCorpusBackup(c *domain.Corpus, t time.Time) domain.CorpusBackup {
	return domain.CorpusBackup{UUID: c.UUID, Corpus: *c, BackupDatetime: t}
}

// NewPhonologyBackup snapshots a Phonology into a PhonologyBackup row at t.
func NewPhonologyBackup(p *domain.Phonology, t time.Time) domain.PhonologyBackup {
	return domain.PhonologyBackup{UUID: p.UUID, Phonology: *p, BackupDatetime: t}
}

// NewMorphologyBackup snapshots a Morphology into a MorphologyBackup row at t.
func NewMorphologyBackup(m *domain.Morphology, t time.Time) domain.MorphologyBackup {
	return domain.MorphologyBackup{UUID: m.UUID, Morphology: *m, BackupDatetime: t}
}

// NewMorphemeLanguageModelBackup snapshots an MLM into its backup row at t.
func NewMorphemeLanguageModelBackup(m *domain.MorphemeLanguageModel, t time.Time) domain.MorphemeLanguageModelBackup {
	return domain.MorphemeLanguageModelBackup{UUID: m.UUID, MorphemeLanguageModel: *m, BackupDatetime: t}
}

// NewMorphologicalParserBackup snapshots a parser into its backup row at t.
func NewMorphologicalParserBackup(p *domain.MorphologicalParser, t time.Time) domain.MorphologicalParserBackup {
	return domain.MorphologicalParserBackup{UUID: p.UUID, MorphologicalParser: *p, BackupDatetime: t}
}

// BuildFormHistory assembles the history payload for a resource that may
// or may not still exist live: current is nil once the
// live row has been deleted, in which case the endpoint still resolves
// by UUID against the backup rows alone.
func BuildFormHistory(current *domain.Form, backups []domain.FormBackup) domain.FormHistory {
	return domain.FormHistory{Form: current, PreviousVersions: backups}
}

func BuildCollectionHistory(current *domain.Collection, backups []domain.CollectionBackup) domain.CollectionHistory {
	return domain.CollectionHistory{Collection: current, PreviousVersions: backups}
}

func BuildCorpusHistory(current *domain.Corpus, backups []domain.CorpusBackup) domain.CorpusHistory {
	return domain.CorpusHistory{Corpus: current, PreviousVersions: backups}
}

func BuildPhonologyHistory(current *domain.Phonology, backups []domain.PhonologyBackup) domain.PhonologyHistory {
	return domain.PhonologyHistory{Phonology: current, PreviousVersions: backups}
}

func BuildMorphologyHistory(current *domain.Morphology, backups []domain.MorphologyBackup) domain.MorphologyHistory {
	return domain.MorphologyHistory{Morphology: current, PreviousVersions: backups}
}

func BuildMorphemeLanguageModelHistory(current *domain.MorphemeLanguageModel, backups []domain.MorphemeLanguageModelBackup) domain.MorphemeLanguageModelHistory {
	return domain.MorphemeLanguageModelHistory{MorphemeLanguageModel: current, PreviousVersions: backups}
}

func BuildMorphologicalParserHistory(current *domain.MorphologicalParser, backups []domain.MorphologicalParserBackup) domain.MorphologicalParserHistory {
	return domain.MorphologicalParserHistory{MorphologicalParser: current, PreviousVersions: backups}
}
