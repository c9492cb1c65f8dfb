package restrict_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dativebase/old/pkg/domain"
	"github.com/dativebase/old/pkg/restrict"
)

const restrictedTagID = int64(99)

func TestUnrestrictedAdmin(t *testing.T) {
	u := &domain.User{ID: 1, IsAdmin: true}
	assert.True(t, restrict.Unrestricted(u, nil))
}

func TestUnrestrictedViaSettingsList(t *testing.T) {
	u := &domain.User{ID: 7}
	assert.True(t, restrict.Unrestricted(u, map[int64]bool{7: true}))
	assert.False(t, restrict.Unrestricted(u, map[int64]bool{8: true}))
}

func TestAccessibleUnrestrictedResource(t *testing.T) {
	f := restrict.New(restrictedTagID)
	u := &domain.User{ID: 1}
	assert.True(t, f.Accessible(u, nil, []int64{1, 2}))
}

func TestAccessibleRestrictedResourceDeniedToOrdinaryUser(t *testing.T) {
	f := restrict.New(restrictedTagID)
	u := &domain.User{ID: 1}
	assert.False(t, f.Accessible(u, nil, []int64{restrictedTagID}))
}

func TestAccessibleRestrictedResourceAllowedForAdmin(t *testing.T) {
	f := restrict.New(restrictedTagID)
	u := &domain.User{ID: 1, IsAdmin: true}
	assert.True(t, f.Accessible(u, nil, []int64{restrictedTagID}))
}

func TestAccessibleNilUserDenied(t *testing.T) {
	f := restrict.New(restrictedTagID)
	assert.False(t, f.Accessible(nil, nil, nil))
}

func TestFilterFormsDropsRestricted(t *testing.T) {
	f := restrict.New(restrictedTagID)
	u := &domain.User{ID: 1}
	visible := &domain.Form{ID: 1, TagIDs: []int64{1}}
	hidden := &domain.Form{ID: 2, TagIDs: []int64{restrictedTagID}}
	out := f.FilterForms(u, nil, []*domain.Form{visible, hidden})
	assert.Equal(t, []*domain.Form{visible}, out)
}

func TestPropagateToFileAddsRestrictedFromForm(t *testing.T) {
	f := restrict.New(restrictedTagID)
	tags := f.PropagateToFile([]int64{1}, []int64{restrictedTagID})
	assert.Contains(t, tags, restrictedTagID)
	assert.Contains(t, tags, int64(1))
}

func TestPropagateToFileLeavesUnrestrictedFormAlone(t *testing.T) {
	f := restrict.New(restrictedTagID)
	tags := f.PropagateToFile([]int64{1}, []int64{2})
	assert.Equal(t, []int64{1}, tags)
}

func TestPropagateToCollectionFromReferents(t *testing.T) {
	f := restrict.New(restrictedTagID)
	tags := f.PropagateToCollection([]int64{1}, []int64{2}, []int64{restrictedTagID})
	assert.Contains(t, tags, restrictedTagID)
}

func TestFormRestrictedMethodAgreesWithFilter(t *testing.T) {
	f := restrict.New(restrictedTagID)
	form := &domain.Form{ID: 1, TagIDs: []int64{restrictedTagID}}
	assert.Equal(t, form.Restricted(restrictedTagID), !f.Accessible(&domain.User{ID: 1}, nil, form.TagIDs))
}
