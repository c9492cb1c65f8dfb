package restrict

import "github.com/dativebase/old/pkg/domain"

// Filter evaluates accessibility of tagged resources for a given user.
type Filter struct {
	restrictedTagID int64
}

// New builds a Filter. restrictedTagID is the id of the Tag row named
// domain.RestrictedTagName in the running instance; it is resolved once
// at startup and passed in rather than looked up per request.
func New(restrictedTagID int64) *Filter {
	return &Filter{restrictedTagID: restrictedTagID}
}

// Unrestricted reports whether u may see every resource regardless of
// tagging: administrators, and users on the instance's
// unrestricted-users list.
func Unrestricted(u *domain.User, unrestrictedUserIDs map[int64]bool) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin || u.Unrestricted {
		return true
	}
	return unrestrictedUserIDs[u.ID]
}

// hasTag reports whether tagID appears in tagIDs.
func hasTag(tagIDs []int64, tagID int64) bool {
	for _, t := range tagIDs {
		if t == tagID {
			return true
		}
	}
	return false
}

// Accessible reports whether a resource carrying tagIDs is visible to u:
// accessible if u is unrestricted, or the resource carries no restricted
// tag.
func (f *Filter) Accessible(u *domain.User, unrestrictedUserIDs map[int64]bool, tagIDs []int64) bool {
	if Unrestricted(u, unrestrictedUserIDs) {
		return true
	}
	return !hasTag(tagIDs, f.restrictedTagID)
}

// FilterForms returns the subset of forms accessible to u, preserving
// order.
func (f *Filter) FilterForms(u *domain.User, unrestrictedUserIDs map[int64]bool, forms []*domain.Form) []*domain.Form {
	out := make([]*domain.Form, 0, len(forms))
	for _, form := range forms {
		if f.Accessible(u, unrestrictedUserIDs, form.TagIDs) {
			out = append(out, form)
		}
	}
	return out
}

// FilterFormIDs returns the subset of form ids whose tag sets (looked up
// via tagsByFormID) are accessible to u. Used when only ids are in hand,
// e.g. a Corpus's FormIDs or a parsed form[<id>] reference set.
func (f *Filter) FilterFormIDs(u *domain.User, unrestrictedUserIDs map[int64]bool, formIDs []int64, tagsByFormID map[int64][]int64) []int64 {
	out := make([]int64, 0, len(formIDs))
	for _, id := range formIDs {
		if f.Accessible(u, unrestrictedUserIDs, tagsByFormID[id]) {
			out = append(out, id)
		}
	}
	return out
}

// PropagateToFile computes the tag set a File should carry once it is
// associated with a Form: the union of the File's own tags and the
// Form's tags, restricted to just the restricted tag. Other tags are not propagated, only restriction.
func (f *Filter) PropagateToFile(fileTagIDs, formTagIDs []int64) []int64 {
	if hasTag(fileTagIDs, f.restrictedTagID) || !hasTag(formTagIDs, f.restrictedTagID) {
		return fileTagIDs
	}
	return append(append([]int64{}, fileTagIDs...), f.restrictedTagID)
}

// PropagateToCollection computes the tag set a Collection should carry
// given the tag sets of every Form and File it references (directly, or
// transitively via nested collection references already resolved by the
// caller): restricted propagates up from any referent.
func (f *Filter) PropagateToCollection(collectionTagIDs []int64, referentTagIDs ...[]int64) []int64 {
	if hasTag(collectionTagIDs, f.restrictedTagID) {
		return collectionTagIDs
	}
	for _, tags := range referentTagIDs {
		if hasTag(tags, f.restrictedTagID) {
			return append(append([]int64{}, collectionTagIDs...), f.restrictedTagID)
		}
	}
	return collectionTagIDs
}

// RestrictedTagID returns the instance's restricted tag id.
func (f *Filter) RestrictedTagID() int64 { return f.restrictedTagID }
