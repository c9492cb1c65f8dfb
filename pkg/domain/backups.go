package domain

import "time"

// Backup rows are read-only snapshots sharing the live entity's UUID, so
// a resource's history survives deletion of the live row.

// FormBackup is a point-in-time snapshot of a Form.
type FormBackup struct {
	ID               int64     `json:"id"`
	UUID             string    `json:"UUID"`
	Form             Form      `json:"form"`
	BackupDatetime   time.Time `json:"datetime_backed_up"`
	ModifierID       *int64    `json:"modifier_id,omitempty"`
}

// CollectionBackup snapshots a Collection.
type CollectionBackup struct {
	ID             int64      `json:"id"`
	UUID           string     `json:"UUID"`
	Collection     Collection `json:"collection"`
	BackupDatetime time.Time  `json:"datetime_backed_up"`
}

// CorpusBackup snapshots a Corpus.
type CorpusBackup struct {
	ID             int64     `json:"id"`
	UUID           string    `json:"UUID"`
	Corpus         Corpus    `json:"corpus"`
	BackupDatetime time.Time `json:"datetime_backed_up"`
}

// PhonologyBackup snapshots a Phonology.
type PhonologyBackup struct {
	ID             int64     `json:"id"`
	UUID           string    `json:"UUID"`
	Phonology      Phonology `json:"phonology"`
	BackupDatetime time.Time `json:"datetime_backed_up"`
}

// MorphologyBackup snapshots a Morphology.
type MorphologyBackup struct {
	ID             int64      `json:"id"`
	UUID           string     `json:"UUID"`
	Morphology     Morphology `json:"morphology"`
	BackupDatetime time.Time  `json:"datetime_backed_up"`
}

// MorphemeLanguageModelBackup snapshots a MorphemeLanguageModel.
type MorphemeLanguageModelBackup struct {
	ID                    int64                 `json:"id"`
	UUID                  string                `json:"UUID"`
	MorphemeLanguageModel MorphemeLanguageModel `json:"morpheme_language_model"`
	BackupDatetime        time.Time             `json:"datetime_backed_up"`
}

// MorphologicalParserBackup snapshots a MorphologicalParser.
type MorphologicalParserBackup struct {
	ID                  int64               `json:"id"`
	UUID                string              `json:"UUID"`
	MorphologicalParser MorphologicalParser `json:"morphological_parser"`
	BackupDatetime      time.Time           `json:"datetime_backed_up"`
}

// The History* types are the response shape of a
// <resource>/<id-or-uuid>/history endpoint: the current row, or nil if the live resource was deleted, plus all
// backups newest-first.

type FormHistory struct {
	Form             *Form        `json:"form"`
	PreviousVersions []FormBackup `json:"previous_versions"`
}

type CollectionHistory struct {
	Collection       *Collection        `json:"collection"`
	PreviousVersions []CollectionBackup `json:"previous_versions"`
}

type CorpusHistory struct {
	Corpus           *Corpus        `json:"corpus"`
	PreviousVersions []CorpusBackup `json:"previous_versions"`
}

type PhonologyHistory struct {
	Phonology        *Phonology        `json:"phonology"`
	PreviousVersions []PhonologyBackup `json:"previous_versions"`
}

type MorphologyHistory struct {
	Morphology       *Morphology        `json:"morphology"`
	PreviousVersions []MorphologyBackup `json:"previous_versions"`
}

type MorphemeLanguageModelHistory struct {
	MorphemeLanguageModel *MorphemeLanguageModel        `json:"morpheme_language_model"`
	PreviousVersions      []MorphemeLanguageModelBackup `json:"previous_versions"`
}

type MorphologicalParserHistory struct {
	MorphologicalParser *MorphologicalParser        `json:"morphological_parser"`
	PreviousVersions    []MorphologicalParserBackup `json:"previous_versions"`
}
