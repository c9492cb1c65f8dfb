// Package corpus implements the Corpus Engine: membership resolution
// (either from a saved FormSearch or an explicit comma-delimited id
// list), writing a corpus's member forms to a treebank or
// transcriptions-only file (with a gzip companion and, when tgrep2 is
// installed, a compiled .t2c index), tgrep2 pattern search over that
// index, ad hoc search restricted to the corpus's own forms, and
// word-category-sequence extraction.
package corpus
