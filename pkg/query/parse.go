package query

import (
	"fmt"

	"github.com/dativebase/old/pkg/domain"
)

// ParseFilter turns the raw JSON list-form filter expression a client
// posts into an Expr. The shape is:
//
//	["and", [expr, expr, ...]]
//	["or",  [expr, expr, ...]]
//	["not", expr]
//	[Model, Attr, Relation, Value]
//	[Model, Attr, ForeignAttr, Relation, Value]
//
// encoding/json unmarshals the posted body into raw interface{} trees
// (numbers as float64, nested arrays as []interface{}), which is exactly
// the shape this function expects.
func ParseFilter(raw interface{}) (Expr, error) {
	p := &parser{errors: map[string]string{}}
	expr := p.parse(raw, "filter")
	if len(p.errors) > 0 {
		return nil, &domain.SearchParseError{Errors: p.errors}
	}
	return expr, nil
}

type parser struct {
	errors map[string]string
}

func (p *parser) fail(key, message string) {
	p.errors[key] = message
}

func (p *parser) parse(raw interface{}, key string) Expr {
	list, ok := raw.([]interface{})
	if !ok {
		p.fail(key, "a filter expression must be a JSON array")
		return nil
	}
	if len(list) == 0 {
		p.fail(key, "empty filter expression")
		return nil
	}

	head, ok := list[0].(string)
	if !ok {
		return p.parseLeaf(list, key)
	}

	switch head {
	case "and", "or":
		if len(list) != 2 {
			p.fail(key, fmt.Sprintf("%q expects exactly one operand: a list of sub-filters", head))
			return nil
		}
		children, ok := list[1].([]interface{})
		if !ok {
			p.fail(key, fmt.Sprintf("%q operand must be a JSON array of sub-filters", head))
			return nil
		}
		parsed := make([]Expr, 0, len(children))
		for i, c := range children {
			sub := p.parse(c, fmt.Sprintf("%s.%s[%d]", key, head, i))
			if sub != nil {
				parsed = append(parsed, sub)
			}
		}
		if len(parsed) == 0 {
			return nil
		}
		if head == "and" {
			return And{Children: parsed}
		}
		return Or{Children: parsed}
	case "not":
		if len(list) != 2 {
			p.fail(key, "\"not\" expects exactly one operand: a sub-filter")
			return nil
		}
		sub := p.parse(list[1], key+".not")
		if sub == nil {
			return nil
		}
		return Not{Child: sub}
	default:
		return p.parseLeaf(list, key)
	}
}

// parseLeaf parses the 4-element Simple or 5-element Cross filter forms.
func (p *parser) parseLeaf(list []interface{}, key string) Expr {
	model, ok := stringAt(list, 0)
	if !ok {
		p.fail(key, "filter's first element must be a model name string")
		return nil
	}
	attr, ok := stringAt(list, 1)
	if !ok {
		p.fail(key, "filter's second element must be an attribute name string")
		return nil
	}

	switch len(list) {
	case 4:
		relation, ok := stringAt(list, 2)
		if !ok {
			p.fail(key, "filter's third element must be a relation string")
			return nil
		}
		return Simple{Model: model, Attr: attr, Relation: relation, Value: list[3]}
	case 5:
		foreignAttr, ok := stringAt(list, 2)
		if !ok {
			p.fail(key, "filter's third element must be a foreign attribute name string")
			return nil
		}
		relation, ok := stringAt(list, 3)
		if !ok {
			p.fail(key, "filter's fourth element must be a relation string")
			return nil
		}
		return Cross{Model: model, Attr: attr, ForeignAttr: foreignAttr, Relation: relation, Value: list[4]}
	default:
		p.fail(key, fmt.Sprintf("a filter leaf must have 4 or 5 elements, got %d", len(list)))
		return nil
	}
}

func stringAt(list []interface{}, i int) (string, bool) {
	if i >= len(list) {
		return "", false
	}
	s, ok := list[i].(string)
	return s, ok
}

// ParseOrderBy turns the raw JSON [Model, Attr, Direction] order_by
// clause into an *OrderBy. A nil/empty raw value yields a nil OrderBy
// (default ordering applies, see CompileOrderBy).
func ParseOrderBy(raw interface{}) (*OrderBy, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, &domain.SearchParseError{Errors: map[string]string{"order_by": "order_by must be a JSON array"}}
	}
	if len(list) == 0 {
		return nil, nil
	}
	if len(list) < 2 || len(list) > 3 {
		return nil, &domain.SearchParseError{Errors: map[string]string{"order_by": "order_by must have 2 or 3 elements: [Model, Attr] or [Model, Attr, Direction]"}}
	}
	model, ok := stringAt(list, 0)
	if !ok {
		return nil, &domain.SearchParseError{Errors: map[string]string{"order_by": "order_by's first element must be a model name string"}}
	}
	attr, ok := stringAt(list, 1)
	if !ok {
		return nil, &domain.SearchParseError{Errors: map[string]string{"order_by": "order_by's second element must be an attribute name string"}}
	}

	dir := Asc
	if len(list) == 3 {
		d, ok := stringAt(list, 2)
		if !ok {
			return nil, &domain.SearchParseError{Errors: map[string]string{"order_by": "order_by's third element must be \"asc\" or \"desc\""}}
		}
		switch d {
		case "asc":
			dir = Asc
		case "desc":
			dir = Desc
		default:
			return nil, &domain.SearchParseError{Errors: map[string]string{"order_by": fmt.Sprintf("unknown order_by direction: %s", d)}}
		}
	}

	return &OrderBy{Model: model, Attr: attr, Direction: dir}, nil
}
