package domain

import "time"

// User is the minimal projection of a user needed by the core. Full
// user CRUD, authentication and password reset are external-collaborator
// concerns and are not implemented here.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	IsAdmin       bool   `json:"is_admin"`
	Unrestricted  bool   `json:"unrestricted"`
}

// Tag is the minimal projection of a tag. The distinguished "restricted"
// tag name drives pkg/restrict.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RestrictedTagName is the distinguished tag that hides a resource from
// restricted users.
const RestrictedTagName = "restricted"

// File is the minimal projection of an uploaded file needed by Form and
// Collection restricted-tag propagation.
type File struct {
	ID          int64 `json:"id"`
	Restricted  bool  `json:"restricted"`
	ParentFileID *int64 `json:"parent_file_id,omitempty"`
}

// SyntacticCategory is the minimal projection needed to align morpheme
// break/gloss/category triples.
type SyntacticCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Translation is one translation line of a Form.
type Translation struct {
	Transcription  string `json:"transcription"`
	Grammaticality string `json:"grammaticality"`
}

// Form is a glossed utterance.
type Form struct {
	ID                        int64         `json:"id"`
	UUID                      string        `json:"UUID"`
	Transcription             string        `json:"transcription"`
	PhoneticTranscription     string        `json:"phonetic_transcription"`
	NarrowPhoneticTranscription string      `json:"narrow_phonetic_transcription"`
	MorphemeBreak             string        `json:"morpheme_break"`
	MorphemeGloss             string        `json:"morpheme_gloss"`
	BreakGlossCategory        string        `json:"break_gloss_category"`
	Grammaticality            string        `json:"grammaticality"`
	SyntacticCategoryID       *int64        `json:"syntactic_category_id,omitempty"`
	Translations              []Translation `json:"translations"`
	TagIDs                    []int64       `json:"tag_ids"`
	FileIDs                   []int64       `json:"file_ids"`
	ElicitorID                *int64        `json:"elicitor_id,omitempty"`
	EntererID                 *int64        `json:"enterer_id,omitempty"`
	VerifierID                *int64        `json:"verifier_id,omitempty"`
	ModifierID                *int64        `json:"modifier_id,omitempty"`
	DateElicited              *time.Time    `json:"date_elicited,omitempty"`
	DatetimeEntered           time.Time     `json:"datetime_entered"`
	DatetimeModified          time.Time     `json:"datetime_modified"`
	// MorphemeBreakIDs/MorphemeGlossIDs are nested-list cross references:
	// one inner list per morpheme position in MorphemeBreak, each
	// containing the ids of other forms whose break+gloss match that
	// morpheme and whose syntactic category matches.
	MorphemeBreakIDs [][]int64 `json:"morpheme_break_ids,omitempty"`
	MorphemeGlossIDs [][]int64 `json:"morpheme_gloss_ids,omitempty"`
}

// Restricted reports whether the restricted tag is present among TagIDs,
// given the id of the "restricted" tag (resolved by the caller).
func (f *Form) Restricted(restrictedTagID int64) bool {
	for _, id := range f.TagIDs {
		if id == restrictedTagID {
			return true
		}
	}
	return false
}

// FormSearch is a saved, schema-validated list-form query over Form.
type FormSearch struct {
	ID               int64     `json:"id"`
	UUID             string    `json:"UUID"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	SearchJSON       string    `json:"search"` // JSON-encoded filter expression
	EntererID        *int64    `json:"enterer_id,omitempty"`
	DatetimeModified time.Time `json:"datetime_modified"`
}

// Corpus is either a snapshot of forms matched by a FormSearch or an
// explicit comma-delimited id list.
type Corpus struct {
	ID               int64     `json:"id"`
	UUID             string    `json:"UUID"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	FormSearchID     *int64    `json:"form_search_id,omitempty"`
	Content          string    `json:"content"` // comma-delimited form ids, mutually exclusive with FormSearchID
	FormIDs          []int64   `json:"forms"`   // denormalized membership, recomputed on save
	TagIDs           []int64   `json:"tag_ids"`
	EntererID        *int64    `json:"enterer_id,omitempty"`
	DatetimeEntered  time.Time `json:"datetime_entered"`
	DatetimeModified time.Time `json:"datetime_modified"`
}

// MarkupLanguage names the markup dialect a Collection's Contents is
// written in.
type MarkupLanguage string

const (
	MarkupLanguageMarkdown MarkupLanguage = "markdown"
	MarkupLanguageReST     MarkupLanguage = "reStructuredText"
)

// Collection is a named text interpolating form[<id>] and
// collection[<id>]/collection(<id>) references. ContentsUnpacked holds
// Contents with every collection reference expanded transitively; HTML
// holds ContentsUnpacked rendered through MarkupLanguage. FormIDs and
// ForwardCollectionIDs are denormalized associations recomputed on save
// by pkg/propagator, and Restricted is propagated from any referenced
// Form or File carrying the restricted tag, independent of TagIDs.
type Collection struct {
	ID                    int64          `json:"id"`
	UUID                  string         `json:"UUID"`
	Name                  string         `json:"name"`
	Type                  string         `json:"type"`
	URL                   string         `json:"url"`
	Description           string         `json:"description"`
	MarkupLanguage        MarkupLanguage `json:"markup_language"`
	Contents              string         `json:"contents"`
	ContentsUnpacked      string         `json:"contents_unpacked"`
	HTML                  string         `json:"html"`
	FormIDs               []int64        `json:"forms"`
	ForwardCollectionIDs  []int64        `json:"-"`
	TagIDs                []int64        `json:"tag_ids"`
	FileIDs               []int64        `json:"file_ids"`
	Restricted            bool           `json:"-"`
	DateElicited          *time.Time     `json:"date_elicited,omitempty"`
	ElicitorID            *int64         `json:"elicitor_id,omitempty"`
	EntererID             *int64         `json:"enterer_id,omitempty"`
	SpeakerID             *int64         `json:"speaker_id,omitempty"`
	SourceID              *int64         `json:"source_id,omitempty"`
	DatetimeEntered       time.Time      `json:"datetime_entered"`
	DatetimeModified      time.Time      `json:"datetime_modified"`
}

// CorpusFile records one artifact produced by Corpus.WriteToFile.
type CorpusFile struct {
	ID       int64     `json:"id"`
	CorpusID int64     `json:"corpus_id"`
	Filename string    `json:"filename"`
	Format   string    `json:"format"`
	Modified time.Time `json:"modified"`
}

// CompileStatus is the status fields shared by Phonology, Morphology,
// MorphemeLanguageModel and MorphologicalParser compile/generate cycles.
type CompileStatus struct {
	Succeeded      bool       `json:"compile_succeeded"`
	Message        string     `json:"compile_message"`
	Attempt        string     `json:"compile_attempt"`
	DatetimeCompiled *time.Time `json:"datetime_compiled,omitempty"`
}

// Phonology persists a foma script and its compile status.
type Phonology struct {
	ID               int64     `json:"id"`
	UUID             string    `json:"UUID"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Script           string    `json:"script"`
	Compile          CompileStatus `json:"-"`
	CompileSucceeded bool      `json:"compile_succeeded"`
	CompileMessage   string    `json:"compile_message"`
	CompileAttempt   string    `json:"compile_attempt"`
	DatetimeCompiled *time.Time `json:"datetime_compiled,omitempty"`
	DatetimeModified time.Time `json:"datetime_modified"`
}

// ScriptType names the morphology script generation style.
type ScriptType string

const (
	ScriptTypeRegex ScriptType = "regex"
	ScriptTypeLexc  ScriptType = "lexc"
)

// Morphology derives a foma script from a rules set or a rules corpus,
// plus a lexicon corpus.
type Morphology struct {
	ID             int64      `json:"id"`
	UUID           string     `json:"UUID"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Rules          string     `json:"rules"`
	RulesCorpusID  *int64     `json:"rules_corpus_id,omitempty"`
	LexiconCorpusID int64     `json:"lexicon_corpus_id"`
	ScriptType     ScriptType `json:"script_type"`
	RichUpper      bool       `json:"rich_upper"`
	RichLower      bool       `json:"rich_lower"`
	IncludeUnknowns bool      `json:"include_unknowns"`
	ExtractMorphemesFromRulesCorpus bool `json:"extract_morphemes_from_rules_corpus"`
	RareDelimiter  string     `json:"rare_delimiter"`

	GenerateAttempt  string `json:"generate_attempt"`
	GenerateMessage  string `json:"generate_message"`
	GenerateSucceeded bool  `json:"generate_succeeded"`

	CompileSucceeded bool       `json:"compile_succeeded"`
	CompileMessage   string     `json:"compile_message"`
	CompileAttempt   string     `json:"compile_attempt"`
	DatetimeCompiled *time.Time `json:"datetime_compiled,omitempty"`
	DatetimeModified time.Time  `json:"datetime_modified"`
}

// MorphemeLanguageModel is trained on a corpus of morphologically
// analyzed forms.
type MorphemeLanguageModel struct {
	ID                   int64  `json:"id"`
	UUID                 string `json:"UUID"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	CorpusID             int64  `json:"corpus_id"`
	VocabularyMorphologyID *int64 `json:"vocabulary_morphology_id,omitempty"`
	Toolkit              string `json:"toolkit"`
	Order                int    `json:"order"` // 2-5
	Smoothing            string `json:"smoothing"`
	Categorial           bool   `json:"categorial"`
	RareDelimiter        string `json:"rare_delimiter"`

	GenerateSucceeded bool   `json:"generate_succeeded"`
	GenerateMessage   string `json:"generate_message"`
	GenerateAttempt   string `json:"generate_attempt"`

	Perplexity         float64 `json:"perplexity"`
	PerplexityComputed bool    `json:"perplexity_computed"`
	PerplexityAttempt  string  `json:"perplexity_attempt"`

	DatetimeModified time.Time `json:"datetime_modified"`
}

// MorphologicalParser composes a Phonology, Morphology and
// MorphemeLanguageModel.
type MorphologicalParser struct {
	ID              int64  `json:"id"`
	UUID            string `json:"UUID"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	PhonologyID     int64  `json:"phonology_id"`
	MorphologyID    int64  `json:"morphology_id"`
	LanguageModelID int64  `json:"language_model_id"`

	GenerateAttempt string `json:"generate_attempt"`
	GenerateMessage string `json:"generate_message"`

	CompileSucceeded bool       `json:"compile_succeeded"`
	CompileMessage   string     `json:"compile_message"`
	CompileAttempt   string     `json:"compile_attempt"`
	DatetimeCompiled *time.Time `json:"datetime_compiled,omitempty"`
	DatetimeModified time.Time  `json:"datetime_modified"`
}
