package propagator

import (
	"context"
	"fmt"

	"github.com/dativebase/old/pkg/domain"
)

// CollectionFetcher resolves a collection's current contents and markup
// language by id, needed to expand nested collection[<id>] references.
type CollectionFetcher interface {
	GetCollection(ctx context.Context, id int64) (*domain.Collection, error)
}

// MarkupRenderer renders expanded contents to HTML per a markup
// language. Out of core scope beyond this call shape; a real
// implementation dispatches to a markdown or reStructuredText renderer.
type MarkupRenderer interface {
	Render(language domain.MarkupLanguage, text string) (string, error)
}

// Accessor reports whether a form id names a form the caller may see
// (existence plus restricted-visibility).
type Accessor interface {
	FormAccessible(ctx context.Context, id int64) (bool, error)
}

// Propagator expands collection content references and renders HTML,
// and cascades edits into other collections when a referenced form or
// collection is deleted.
type Propagator struct {
	collections CollectionFetcher
	renderer    MarkupRenderer
	accessor    Accessor
}

// New builds a Propagator.
func New(collections CollectionFetcher, renderer MarkupRenderer, accessor Accessor) *Propagator {
	return &Propagator{collections: collections, renderer: renderer, accessor: accessor}
}

// Expand walks c.Contents, recursively substituting collection[<id>]/
// collection(<id>) references with the referent's own expanded
// contents, and returns the flattened text along with the union of form
// ids referenced directly or transitively. A cycle in the collection
// reference graph fails with a CircularReferenceError naming the cycle.
func (p *Propagator) Expand(ctx context.Context, c *domain.Collection) (contentsUnpacked string, formIDs []int64, collectionIDs []int64, err error) {
	visited := map[int64]bool{c.ID: true}
	path := []int64{c.ID}
	text, forms, colls, err := p.expand(ctx, c.Contents, visited, path)
	if err != nil {
		return "", nil, nil, err
	}
	return text, forms, colls, nil
}

func (p *Propagator) expand(ctx context.Context, text string, visited map[int64]bool, path []int64) (string, []int64, []int64, error) {
	formSet := map[int64]bool{}
	for _, id := range formRefIDs(text) {
		formSet[id] = true
	}
	collSet := map[int64]bool{}

	for _, refID := range collectionRefIDs(text) {
		if visited[refID] {
			return "", nil, nil, &domain.CircularReferenceError{Cycle: append(append([]int64{}, path...), refID)}
		}
		referent, err := p.collections.GetCollection(ctx, refID)
		if err != nil {
			return "", nil, nil, err
		}
		if referent == nil {
			continue
		}
		collSet[refID] = true

		nextVisited := make(map[int64]bool, len(visited)+1)
		for k := range visited {
			nextVisited[k] = true
		}
		nextVisited[refID] = true
		nextPath := append(append([]int64{}, path...), refID)

		nestedText, nestedForms, nestedColls, err := p.expand(ctx, referent.Contents, nextVisited, nextPath)
		if err != nil {
			return "", nil, nil, err
		}
		text = replaceCollectionRef(text, refID, nestedText)
		for _, id := range nestedForms {
			formSet[id] = true
		}
		for _, id := range nestedColls {
			collSet[id] = true
		}
	}

	formIDs := make([]int64, 0, len(formSet))
	for id := range formSet {
		formIDs = append(formIDs, id)
	}
	collIDs := make([]int64, 0, len(collSet))
	for id := range collSet {
		collIDs = append(collIDs, id)
	}
	return text, formIDs, collIDs, nil
}

// Propagate runs Expand, validates the referenced forms are accessible
// to the saving user, and renders HTML from the expanded contents. It
// mutates c in place: ContentsUnpacked, FormIDs, ForwardCollectionIDs,
// HTML.
func (p *Propagator) Propagate(ctx context.Context, c *domain.Collection) error {
	contentsUnpacked, formIDs, collIDs, err := p.Expand(ctx, c)
	if err != nil {
		return err
	}
	for _, id := range formIDs {
		ok, err := p.accessor.FormAccessible(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.UnauthorizedError{ReferentID: id, Kind: "form"}
		}
	}
	html, err := p.renderer.Render(c.MarkupLanguage, contentsUnpacked)
	if err != nil {
		return fmt.Errorf("rendering collection %d: %w", c.ID, err)
	}

	c.ContentsUnpacked = contentsUnpacked
	c.FormIDs = formIDs
	c.ForwardCollectionIDs = collIDs
	c.HTML = html
	return nil
}

// OnFormDeleted returns the subset of candidates whose Contents mentions
// formID, with the form[<id>] token stripped and ContentsUnpacked/HTML
// left stale pending re-Propagate by the caller. The caller is
// responsible for backing up and re-saving each returned collection.
func (p *Propagator) OnFormDeleted(formID int64, candidates []*domain.Collection) []*domain.Collection {
	var affected []*domain.Collection
	for _, c := range candidates {
		stripped := stripFormRef(c.Contents, formID)
		if stripped != c.Contents {
			c.Contents = stripped
			affected = append(affected, c)
		}
	}
	return affected
}

// OnCollectionDeleted returns the subset of candidates whose Contents
// mentions collectionID, with the collection[<id>]/collection(<id>)
// token stripped. Same re-save contract as OnFormDeleted.
func (p *Propagator) OnCollectionDeleted(collectionID int64, candidates []*domain.Collection) []*domain.Collection {
	var affected []*domain.Collection
	for _, c := range candidates {
		stripped := stripCollectionRef(c.Contents, collectionID)
		if stripped != c.Contents {
			c.Contents = stripped
			affected = append(affected, c)
		}
	}
	return affected
}
