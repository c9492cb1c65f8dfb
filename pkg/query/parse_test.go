package query_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/query"
)

func decodeFilter(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestParseFilterSimple(t *testing.T) {
	raw := decodeFilter(t, `["Form", "transcription", "like", "%chien%"]`)
	expr, err := query.ParseFilter(raw)
	require.NoError(t, err)
	s, ok := expr.(query.Simple)
	require.True(t, ok)
	assert.Equal(t, "Form", s.Model)
	assert.Equal(t, "transcription", s.Attr)
	assert.Equal(t, "like", s.Relation)
	assert.Equal(t, "%chien%", s.Value)
}

func TestParseFilterCross(t *testing.T) {
	raw := decodeFilter(t, `["Form", "tag", "id", "=", 1]`)
	expr, err := query.ParseFilter(raw)
	require.NoError(t, err)
	c, ok := expr.(query.Cross)
	require.True(t, ok)
	assert.Equal(t, "tag", c.Attr)
	assert.Equal(t, "id", c.ForeignAttr)
}

func TestParseFilterAnd(t *testing.T) {
	raw := decodeFilter(t, `["and", [
		["Form", "transcription", "=", "a"],
		["Form", "morpheme_break", "=", "b"]
	]]`)
	expr, err := query.ParseFilter(raw)
	require.NoError(t, err)
	a, ok := expr.(query.And)
	require.True(t, ok)
	assert.Len(t, a.Children, 2)
}

func TestParseFilterOrIdempotentWithSingleChild(t *testing.T) {
	single := decodeFilter(t, `["Form", "transcription", "=", "a"]`)
	wrapped := decodeFilter(t, `["or", [["Form", "transcription", "=", "a"]]]`)

	exprSingle, err := query.ParseFilter(single)
	require.NoError(t, err)
	exprWrapped, err := query.ParseFilter(wrapped)
	require.NoError(t, err)

	cqSingle, err := query.Compile(schema(), query.PostgresDialect{}, "Form", exprSingle)
	require.NoError(t, err)
	cqWrapped, err := query.Compile(schema(), query.PostgresDialect{}, "Form", exprWrapped)
	require.NoError(t, err)

	assert.Equal(t, cqSingle.Args, cqWrapped.Args)
}

func TestParseFilterNot(t *testing.T) {
	raw := decodeFilter(t, `["not", ["Form", "transcription", "=", "a"]]`)
	expr, err := query.ParseFilter(raw)
	require.NoError(t, err)
	_, ok := expr.(query.Not)
	require.True(t, ok)
}

func TestParseFilterRejectsWrongLeafLength(t *testing.T) {
	raw := decodeFilter(t, `["Form", "transcription"]`)
	_, err := query.ParseFilter(raw)
	require.Error(t, err)
}

func TestParseFilterRejectsNonArray(t *testing.T) {
	raw := decodeFilter(t, `"not an array"`)
	_, err := query.ParseFilter(raw)
	require.Error(t, err)
}

func TestParseOrderByDefault(t *testing.T) {
	ob, err := query.ParseOrderBy(nil)
	require.NoError(t, err)
	assert.Nil(t, ob)
}

func TestParseOrderByWithDirection(t *testing.T) {
	raw := decodeFilter(t, `["Form", "transcription", "desc"]`)
	ob, err := query.ParseOrderBy(raw)
	require.NoError(t, err)
	require.NotNil(t, ob)
	assert.Equal(t, query.Desc, ob.Direction)
}

func TestParseOrderByRejectsBadDirection(t *testing.T) {
	raw := decodeFilter(t, `["Form", "transcription", "sideways"]`)
	_, err := query.ParseOrderBy(raw)
	require.Error(t, err)
}
