package query

import (
	"fmt"
	"strings"

	"github.com/dativebase/old/pkg/domain"
)

// join is one LEFT JOIN clause the compiler has discovered while
// translating cross-model and collection filters. Every cross-model
// condition gets its own freshly aliased join so that two conditions
// against the same collection attribute (e.g. "tag id=1 AND tag id=2")
// do not collapse onto a single row.
type join struct {
	table string
	alias string
	on    string
}

// CompiledQuery is the translated SQL fragment plus its bound
// parameters, ready to be embedded after a "WHERE" keyword alongside the
// FROM/JOIN clauses it names.
type CompiledQuery struct {
	From  string
	Joins []string
	Where string
	Args  []interface{}
}

type compiler struct {
	schema    *Schema
	dialect   Dialect
	errors    map[string]string
	joins     []join
	joinCount int
	args      []interface{}
}

// Compile validates and translates expr against schema for the given
// target model, returning the FROM/JOIN/WHERE fragments and bound
// arguments a caller can embed into a SELECT. On any validation failure
// it returns a *domain.SearchParseError carrying the accumulated
// per-key error map.
func Compile(schema *Schema, dialect Dialect, targetModel string, expr Expr) (*CompiledQuery, error) {
	model, err := schema.Model(targetModel)
	if err != nil {
		return nil, &domain.SearchParseError{Errors: map[string]string{targetModel: err.Error()}}
	}

	c := &compiler{schema: schema, dialect: dialect, errors: map[string]string{}}
	baseAlias := "t"

	where := c.compile(expr, targetModel, baseAlias)

	if len(c.errors) > 0 {
		return nil, &domain.SearchParseError{Errors: c.errors}
	}

	joinClauses := make([]string, 0, len(c.joins))
	for _, j := range c.joins {
		joinClauses = append(joinClauses, fmt.Sprintf("LEFT JOIN %s AS %s ON %s", j.table, j.alias, j.on))
	}

	return &CompiledQuery{
		From:  fmt.Sprintf("%s AS %s", model.Table, baseAlias),
		Joins: joinClauses,
		Where: where,
		Args:  c.args,
	}, nil
}

// compile recursively translates expr. targetModel/targetAlias identify
// the "current" model context (the model a Simple/Cross filter's first
// element names), which may differ from the base target when the
// expression has already descended into a joined collection (not
// currently exercised, since this grammar is one level deep, but
// kept general for And/Or/Not composition across same-model filters).
func (c *compiler) compile(expr Expr, targetModel, targetAlias string) string {
	switch e := expr.(type) {
	case And:
		parts := make([]string, 0, len(e.Children))
		for _, child := range e.Children {
			parts = append(parts, c.compile(child, targetModel, targetAlias))
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	case Or:
		parts := make([]string, 0, len(e.Children))
		for _, child := range e.Children {
			parts = append(parts, c.compile(child, targetModel, targetAlias))
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	case Not:
		return "(NOT " + c.compile(e.Child, targetModel, targetAlias) + ")"
	case Simple:
		return c.compileSimple(e)
	case Cross:
		return c.compileCross(e)
	default:
		c.fail("expr", fmt.Sprintf("unknown expression node %T", expr))
		return "(1=1)"
	}
}

func (c *compiler) fail(key, message string) {
	c.errors[key] = message
}

func (c *compiler) nextAlias(prefix string) string {
	c.joinCount++
	return fmt.Sprintf("%s_%d", prefix, c.joinCount)
}

func (c *compiler) bind(v interface{}) string {
	c.args = append(c.args, v)
	return c.dialect.Placeholder(len(c.args))
}

// relationSQL renders a relation against an already-bound column
// expression. "regex" routes through the dialect's operator (Postgres'
// native "~" vs. SQLite's registered REGEXP function) and "in" expands
// its slice value into one bound placeholder per element rather than
// relying on a Postgres-only ANY(array) construct, so both relations
// produce valid SQL against either dialect this package targets.
func (c *compiler) relationSQL(col, rel string, value interface{}) string {
	switch rel {
	case "like":
		return fmt.Sprintf("%s LIKE %s", col, c.bind(value))
	case "regex":
		return fmt.Sprintf("%s %s %s", col, c.dialect.RegexpOperator(), c.bind(value))
	case "in":
		return c.inClauseSQL(col, value)
	default:
		return fmt.Sprintf("%s %s %s", col, rel, c.bind(value))
	}
}

// inClauseSQL renders "col IN ($1, $2, ...)" with one bound parameter
// per element of value, which must be a slice (the query parser
// decodes JSON array filter values as []interface{}). An empty list
// matches no rows.
func (c *compiler) inClauseSQL(col string, value interface{}) string {
	items, ok := value.([]interface{})
	if !ok {
		c.fail(col, fmt.Sprintf("the in relation requires a list value, got %T", value))
		return "(1=0)"
	}
	if len(items) == 0 {
		return "(1=0)"
	}
	placeholders := make([]string, len(items))
	for i, item := range items {
		placeholders[i] = c.bind(item)
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", "))
}

// applyConverter runs conv over value, applying it element-wise when
// relCanon is "in" (whose value is a []interface{} of individually
// comparable items) rather than over the whole slice at once.
func applyConverter(conv Converter, relCanon string, value interface{}) (interface{}, error) {
	if conv == nil {
		return value, nil
	}
	if relCanon != "in" {
		return conv(value)
	}
	items, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("the in relation requires a list value, got %T", value)
	}
	converted := make([]interface{}, len(items))
	for i, item := range items {
		c, err := conv(item)
		if err != nil {
			return nil, err
		}
		converted[i] = c
	}
	return converted, nil
}

func (c *compiler) compileSimple(s Simple) string {
	key := fmt.Sprintf("%s.%s.%s", s.Model, s.Attr, s.Relation)

	model, err := c.schema.Model(s.Model)
	if err != nil {
		c.fail(fmt.Sprintf("%s.%s", s.Model, s.Attr), err.Error())
		return "(1=1)"
	}
	attr, err := model.Attr(s.Attr)
	if err != nil {
		c.fail(fmt.Sprintf("%s.%s", s.Model, s.Attr), err.Error())
		return "(1=1)"
	}

	relCanon, ok := NormalizeRelation(s.Relation)
	if !ok {
		c.fail(key, fmt.Sprintf("unsupported relation: %s", s.Relation))
		return "(1=1)"
	}

	switch attr.Kind {
	case AttrForeignCollection:
		c.fail(key, "a collection attribute requires a foreign attribute (use the 5-element filter form)")
		return "(1=1)"
	case AttrForeignScalar:
		if !EqualityOnly[relCanon] {
			c.fail(key, "foreign-key attributes admit only equality relations")
			return "(1=1)"
		}
	}
	if attr.AllowedRelations != nil && !attr.AllowedRelations[relCanon] {
		c.fail(key, fmt.Sprintf("relation %s is not allowed on %s.%s", relCanon, s.Model, s.Attr))
		return "(1=1)"
	}

	value, err := applyConverter(attr.Converter, relCanon, s.Value)
	if err != nil {
		c.fail(key, err.Error())
		return "(1=1)"
	}

	column := attr.Column
	if attr.Kind == AttrForeignScalar {
		column = attr.JoinColumn
	}
	colExpr := "t." + column
	if relCanon == "like" || relCanon == "regex" || relCanon == "=" || relCanon == "!=" {
		colExpr = c.dialect.CollateEquality(colExpr)
	}

	return c.relationSQL(colExpr, relCanon, value)
}

func (c *compiler) compileCross(cr Cross) string {
	key := fmt.Sprintf("%s.%s.%s.%s", cr.Model, cr.Attr, cr.ForeignAttr, cr.Relation)

	model, err := c.schema.Model(cr.Model)
	if err != nil {
		c.fail(key, err.Error())
		return "(1=1)"
	}
	attr, err := model.Attr(cr.Attr)
	if err != nil {
		c.fail(key, err.Error())
		return "(1=1)"
	}
	if attr.Kind != AttrForeignScalar && attr.Kind != AttrForeignCollection {
		c.fail(key, fmt.Sprintf("%s.%s is not a foreign attribute", cr.Model, cr.Attr))
		return "(1=1)"
	}

	foreignModel, err := c.schema.Model(attr.ForeignModel)
	if err != nil {
		c.fail(key, fmt.Sprintf("unjoinable cross-model filter: %s", err.Error()))
		return "(1=1)"
	}
	foreignAttr, err := foreignModel.Attr(cr.ForeignAttr)
	if err != nil {
		c.fail(key, err.Error())
		return "(1=1)"
	}

	relCanon, ok := NormalizeRelation(cr.Relation)
	if !ok {
		c.fail(key, fmt.Sprintf("unsupported relation: %s", cr.Relation))
		return "(1=1)"
	}
	if foreignAttr.AllowedRelations != nil && !foreignAttr.AllowedRelations[relCanon] {
		c.fail(key, fmt.Sprintf("relation %s is not allowed on %s.%s", relCanon, attr.ForeignModel, cr.ForeignAttr))
		return "(1=1)"
	}

	fAlias := c.nextAlias(strings.ToLower(attr.ForeignModel))

	if attr.JoinTable != "" {
		jtAlias := c.nextAlias(attr.JoinTable)
		c.joins = append(c.joins, join{
			table: attr.JoinTable,
			alias: jtAlias,
			on:    fmt.Sprintf("%s.%s = t.%s", jtAlias, attr.JoinColumn, model.PrimaryKey),
		})
		c.joins = append(c.joins, join{
			table: foreignModel.Table,
			alias: fAlias,
			on:    fmt.Sprintf("%s.%s = %s.%s", fAlias, foreignModel.PrimaryKey, jtAlias, attr.ForeignColumn),
		})
	} else {
		c.joins = append(c.joins, join{
			table: foreignModel.Table,
			alias: fAlias,
			on:    fmt.Sprintf("t.%s = %s.%s", attr.JoinColumn, fAlias, attr.ForeignColumn),
		})
	}

	value, err := applyConverter(foreignAttr.Converter, relCanon, cr.Value)
	if err != nil {
		c.fail(key, err.Error())
		return "(1=1)"
	}

	colExpr := fAlias + "." + foreignAttr.Column
	if relCanon == "like" || relCanon == "regex" || relCanon == "=" || relCanon == "!=" {
		colExpr = c.dialect.CollateEquality(colExpr)
	}

	return c.relationSQL(colExpr, relCanon, value)
}

// CompileOrderBy translates an OrderBy clause into an "ORDER BY ..."
// fragment (without the keywords), defaulting to ascending by the
// target model's primary key when ob is nil.
func CompileOrderBy(schema *Schema, dialect Dialect, targetModel string, ob *OrderBy) (string, error) {
	model, err := schema.Model(targetModel)
	if err != nil {
		return "", err
	}
	if ob == nil {
		return fmt.Sprintf("t.%s ASC", model.PrimaryKey), nil
	}

	m, err := schema.Model(ob.Model)
	if err != nil {
		return "", err
	}
	attr, err := m.Attr(ob.Attr)
	if err != nil {
		return "", err
	}
	if attr.Kind != AttrScalar {
		return "", fmt.Errorf("order_by attribute must be scalar: %s.%s", ob.Model, ob.Attr)
	}

	dir := "ASC"
	if ob.Direction == Desc {
		dir = "DESC"
	}

	col := "t." + attr.Column
	col = dialect.CollateOrder(col)
	return fmt.Sprintf("%s %s", col, dir), nil
}
