package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMorphemes(t *testing.T) {
	got := SplitMorphemes("chien-s", nil)
	assert.Equal(t, []string{"chien", "s"}, got)
}

func TestSplitMorphemesCustomDelimiter(t *testing.T) {
	got := SplitMorphemes("chien=s=PL", []string{"="})
	assert.Equal(t, []string{"chien", "s", "PL"}, got)
}

func TestCategorySequence(t *testing.T) {
	bgc := "chien|chien|N-s|PL|Num"
	got := CategorySequence(bgc, nil)
	assert.Equal(t, []string{"N", "Num"}, got)
}

func TestFormRestricted(t *testing.T) {
	f := &Form{TagIDs: []int64{1, 2, 3}}
	assert.True(t, f.Restricted(2))
	assert.False(t, f.Restricted(9))
}
