package query

// NewOLDSchema builds the static schema table used by the Form and
// Corpus search endpoints. It only covers the
// models the core query compiler actually targets; the much larger set
// of CRUD-only models (Speaker, ElicitationMethod, Source, ...) are
// external-collaborator concerns and are omitted.
func NewOLDSchema() *Schema {
	mysqlDatetime := DatetimeConverter(true)

	formModel := &ModelDef{
		Table:      "forms",
		PrimaryKey: "id",
		Attrs: map[string]*AttrDef{
			"id":                     {Kind: AttrScalar, Column: "id"},
			"UUID":                   {Kind: AttrScalar, Column: "uuid"},
			"transcription":          {Kind: AttrScalar, Column: "transcription"},
			"phonetic_transcription": {Kind: AttrScalar, Column: "phonetic_transcription"},
			"narrow_phonetic_transcription": {Kind: AttrScalar, Column: "narrow_phonetic_transcription"},
			"morpheme_break":         {Kind: AttrScalar, Column: "morpheme_break"},
			"morpheme_gloss":         {Kind: AttrScalar, Column: "morpheme_gloss"},
			"break_gloss_category":   {Kind: AttrScalar, Column: "break_gloss_category"},
			"grammaticality":         {Kind: AttrScalar, Column: "grammaticality"},
			"datetime_entered":       {Kind: AttrScalar, Column: "datetime_entered", Converter: mysqlDatetime},
			"datetime_modified":      {Kind: AttrScalar, Column: "datetime_modified", Converter: mysqlDatetime},
			"date_elicited":          {Kind: AttrScalar, Column: "date_elicited", Converter: DateConverter},
			"syntactic_category": {
				Kind:             AttrForeignScalar,
				ForeignModel:     "SyntacticCategory",
				JoinColumn:       "syntactic_category_id",
				ForeignColumn:    "id",
				AllowedRelations: EqualityOnly,
			},
			"elicitor": {
				Kind:             AttrForeignScalar,
				ForeignModel:     "User",
				JoinColumn:       "elicitor_id",
				ForeignColumn:    "id",
				AllowedRelations: EqualityOnly,
			},
			"tag": {
				Kind:          AttrForeignCollection,
				ForeignModel:  "Tag",
				JoinTable:     "form_tags",
				JoinColumn:    "form_id",
				ForeignColumn: "tag_id",
			},
			"file": {
				Kind:          AttrForeignCollection,
				ForeignModel:  "File",
				JoinTable:     "form_files",
				JoinColumn:    "form_id",
				ForeignColumn: "file_id",
			},
		},
	}

	tagModel := &ModelDef{
		Table:      "tags",
		PrimaryKey: "id",
		Attrs: map[string]*AttrDef{
			"id":   {Kind: AttrScalar, Column: "id"},
			"name": {Kind: AttrScalar, Column: "name"},
		},
	}

	fileModel := &ModelDef{
		Table:      "files",
		PrimaryKey: "id",
		Attrs: map[string]*AttrDef{
			"id":       {Kind: AttrScalar, Column: "id"},
			"filename": {Kind: AttrScalar, Column: "filename"},
			"MIME_type": {Kind: AttrScalar, Column: "mime_type"},
		},
	}

	syncatModel := &ModelDef{
		Table:      "syntactic_categories",
		PrimaryKey: "id",
		Attrs: map[string]*AttrDef{
			"id":   {Kind: AttrScalar, Column: "id"},
			"name": {Kind: AttrScalar, Column: "name"},
		},
	}

	userModel := &ModelDef{
		Table:      "users",
		PrimaryKey: "id",
		Attrs: map[string]*AttrDef{
			"id":       {Kind: AttrScalar, Column: "id"},
			"username": {Kind: AttrScalar, Column: "username"},
		},
	}

	corpusModel := &ModelDef{
		Table:      "corpora",
		PrimaryKey: "id",
		Attrs: map[string]*AttrDef{
			"id":   {Kind: AttrScalar, Column: "id"},
			"name": {Kind: AttrScalar, Column: "name"},
			"form": {
				Kind:          AttrForeignCollection,
				ForeignModel:  "Form",
				JoinTable:     "corpus_forms",
				JoinColumn:    "corpus_id",
				ForeignColumn: "form_id",
			},
		},
	}

	return &Schema{Models: map[string]*ModelDef{
		"Form":              formModel,
		"Tag":                tagModel,
		"File":               fileModel,
		"SyntacticCategory":  syncatModel,
		"User":               userModel,
		"Corpus":             corpusModel,
	}}
}
