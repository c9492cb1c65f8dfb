// Package morphology implements the Morphology Compiler: deriving a
// foma script (regex or lexc style) from an explicit rules set or a
// rules corpus plus a lexicon corpus, compiling it, and applying it in
// either direction via flookup.
package morphology
