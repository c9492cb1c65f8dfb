package query

import "fmt"

// AttrKind classifies an attribute: a plain scalar column, a
// many-to-one foreign reference (a "scalar" foreign attribute), or a
// many-to-many collection.
type AttrKind int

const (
	AttrScalar AttrKind = iota
	AttrForeignScalar
	AttrForeignCollection
)

// Converter normalizes a filter value before it is bound as a SQL
// parameter, e.g. parsing an ISO-8601 date/datetime string.
type Converter func(v interface{}) (interface{}, error)

// AttrDef describes one attribute of a model.
type AttrDef struct {
	Kind AttrKind

	// Column is the SQL column name for AttrScalar attributes.
	Column string

	// ForeignModel names the target model for AttrForeignScalar and
	// AttrForeignCollection attributes.
	ForeignModel string

	// JoinColumn/ForeignColumn describe how to join Model to
	// ForeignModel for collection attributes: Model.JoinColumn =
	// ForeignModel.ForeignColumn (or, for many-to-many, an
	// association-table join is named in JoinTable).
	JoinColumn    string
	ForeignColumn string
	JoinTable     string

	// Converter, if set, is applied to every value compared against
	// this attribute.
	Converter Converter

	// AllowedRelations restricts which relations may target this
	// attribute. Nil means all relations in AllRelations are allowed.
	// Foreign-key attributes (AttrForeignScalar referenced directly,
	// not via a cross filter) admit only equality.
	AllowedRelations map[string]bool
}

// ModelDef is the static per-model schema entry.
type ModelDef struct {
	Table      string
	PrimaryKey string
	Attrs      map[string]*AttrDef
}

// Schema is the static table of models the compiler may reference.
type Schema struct {
	Models map[string]*ModelDef
}

// Model looks up a model definition, returning an error shaped for
// SearchParseError aggregation if the model is unknown.
func (s *Schema) Model(name string) (*ModelDef, error) {
	m, ok := s.Models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return m, nil
}

// Attr looks up an attribute definition on a model.
func (m *ModelDef) Attr(name string) (*AttrDef, error) {
	a, ok := m.Attrs[name]
	if !ok {
		return nil, fmt.Errorf("unknown attribute: %s", name)
	}
	return a, nil
}

// AllRelations is the full relation vocabulary, including operator-
// method aliases.
var AllRelations = map[string]string{
	"=":           "=",
	"__eq__":      "=",
	"!=":          "!=",
	"__ne__":      "!=",
	"<":           "<",
	"__lt__":      "<",
	"<=":          "<=",
	"__le__":      "<=",
	">":           ">",
	"__gt__":      ">",
	">=":          ">=",
	"__ge__":      ">=",
	"like":        "like",
	"__like__":    "like",
	"regex":       "regex",
	"__regex__":   "regex",
	"in":          "in",
	"__in__":      "in",
}

// EqualityOnly is the set of relations permitted against a foreign-key
// attribute referenced directly (not via a 5-element cross filter).
var EqualityOnly = map[string]bool{"=": true, "!=": true}

// NormalizeRelation resolves an operator-method alias to its canonical
// relation name.
func NormalizeRelation(rel string) (string, bool) {
	canon, ok := AllRelations[rel]
	return canon, ok
}
