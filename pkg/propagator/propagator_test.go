package propagator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/propagator"
)

type fakeCollections struct {
	byID map[int64]*domain.Collection
}

func (f *fakeCollections) GetCollection(_ context.Context, id int64) (*domain.Collection, error) {
	return f.byID[id], nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(_ domain.MarkupLanguage, text string) (string, error) {
	return "<p>" + text + "</p>", nil
}

type fakeAccessor struct {
	inaccessible map[int64]bool
}

func (f *fakeAccessor) FormAccessible(_ context.Context, id int64) (bool, error) {
	return !f.inaccessible[id], nil
}

func TestExpandNoReferences(t *testing.T) {
	p := propagator.New(&fakeCollections{byID: map[int64]*domain.Collection{}}, fakeRenderer{}, &fakeAccessor{})
	c := &domain.Collection{ID: 1, Contents: "plain text, no references"}

	unpacked, formIDs, collIDs, err := p.Expand(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "plain text, no references", unpacked)
	assert.Empty(t, formIDs)
	assert.Empty(t, collIDs)
}

func TestExpandFormReferences(t *testing.T) {
	p := propagator.New(&fakeCollections{byID: map[int64]*domain.Collection{}}, fakeRenderer{}, &fakeAccessor{})
	c := &domain.Collection{ID: 1, Contents: "see form[3] and form[5] and form[3] again"}

	unpacked, formIDs, _, err := p.Expand(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, c.Contents, unpacked)
	assert.ElementsMatch(t, []int64{3, 5}, formIDs)
}

func TestExpandNestedCollectionReferences(t *testing.T) {
	inner := &domain.Collection{ID: 2, Contents: "inner text with form[9]"}
	coll := &fakeCollections{byID: map[int64]*domain.Collection{2: inner}}
	p := propagator.New(coll, fakeRenderer{}, &fakeAccessor{})

	outer := &domain.Collection{ID: 1, Contents: "before collection[2] after"}
	unpacked, formIDs, collIDs, err := p.Expand(context.Background(), outer)
	require.NoError(t, err)
	assert.Equal(t, "before inner text with form[9] after", unpacked)
	assert.Equal(t, []int64{9}, formIDs)
	assert.Equal(t, []int64{2}, collIDs)
}

func TestExpandDetectsCycle(t *testing.T) {
	a := &domain.Collection{ID: 1, Contents: "ref collection(2)"}
	b := &domain.Collection{ID: 2, Contents: "ref collection(1)"}
	coll := &fakeCollections{byID: map[int64]*domain.Collection{1: a, 2: b}}
	p := propagator.New(coll, fakeRenderer{}, &fakeAccessor{})

	_, _, _, err := p.Expand(context.Background(), a)
	require.Error(t, err)
	var cycleErr *domain.CircularReferenceError
	assert.ErrorAs(t, err, &cycleErr)
}

func TestPropagateRendersHTMLAndValidatesAccess(t *testing.T) {
	coll := &fakeCollections{byID: map[int64]*domain.Collection{}}
	p := propagator.New(coll, fakeRenderer{}, &fakeAccessor{inaccessible: map[int64]bool{7: true}})

	c := &domain.Collection{ID: 1, Contents: "form[4]"}
	err := p.Propagate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, c.FormIDs)
	assert.Equal(t, "<p>form[4]</p>", c.HTML)

	restricted := &domain.Collection{ID: 2, Contents: "form[7]"}
	err = p.Propagate(context.Background(), restricted)
	require.Error(t, err)
	var unauthorized *domain.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}

func TestOnFormDeletedStripsReferences(t *testing.T) {
	p := propagator.New(&fakeCollections{}, fakeRenderer{}, &fakeAccessor{})
	affected := &domain.Collection{ID: 1, Contents: "see form[3] here"}
	unaffected := &domain.Collection{ID: 2, Contents: "no mention"}

	changed := p.OnFormDeleted(3, []*domain.Collection{affected, unaffected})
	require.Len(t, changed, 1)
	assert.Equal(t, int64(1), changed[0].ID)
	assert.Equal(t, "see  here", affected.Contents)
}

func TestOnCollectionDeletedStripsReferences(t *testing.T) {
	p := propagator.New(&fakeCollections{}, fakeRenderer{}, &fakeAccessor{})
	bracket := &domain.Collection{ID: 1, Contents: "see collection[9] here"}
	paren := &domain.Collection{ID: 2, Contents: "see collection(9) here"}
	unaffected := &domain.Collection{ID: 3, Contents: "no mention"}

	changed := p.OnCollectionDeleted(9, []*domain.Collection{bracket, paren, unaffected})
	require.Len(t, changed, 2)
	assert.Equal(t, "see  here", bracket.Contents)
	assert.Equal(t, "see  here", paren.Contents)
}
