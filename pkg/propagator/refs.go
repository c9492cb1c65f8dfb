package propagator

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	formRefRe       = regexp.MustCompile(`form\[(\d+)\]`)
	collectionRefRe = regexp.MustCompile(`collection[\[\(](\d+)[\]\)]`)
)

// formRefIDs returns the distinct form ids referenced by text, in first-
// occurrence order.
func formRefIDs(text string) []int64 {
	return matchIDs(formRefRe, text)
}

// collectionRefIDs returns the distinct collection ids referenced by
// text, in first-occurrence order.
func collectionRefIDs(text string) []int64 {
	return matchIDs(collectionRefRe, text)
}

func matchIDs(re *regexp.Regexp, text string) []int64 {
	matches := re.FindAllStringSubmatch(text, -1)
	seen := make(map[int64]bool, len(matches))
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// stripFormRef removes every form[id] token referencing id from text.
func stripFormRef(text string, id int64) string {
	target := "form[" + strconv.FormatInt(id, 10) + "]"
	return strings.ReplaceAll(text, target, "")
}

// stripCollectionRef removes every collection[id]/collection(id) token
// referencing id from text.
func stripCollectionRef(text string, id int64) string {
	bracket := "collection[" + strconv.FormatInt(id, 10) + "]"
	paren := "collection(" + strconv.FormatInt(id, 10) + ")"
	return strings.ReplaceAll(strings.ReplaceAll(text, bracket, ""), paren, "")
}

// replaceCollectionRef substitutes every collection[id]/collection(id)
// token referencing id with replacement.
func replaceCollectionRef(text string, id int64, replacement string) string {
	bracket := "collection[" + strconv.FormatInt(id, 10) + "]"
	paren := "collection(" + strconv.FormatInt(id, 10) + ")"
	return strings.ReplaceAll(strings.ReplaceAll(text, bracket, replacement), paren, replacement)
}
