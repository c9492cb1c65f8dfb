// Package phonology implements the Phonology Compiler: script storage,
// foma compilation, flookup-backed apply-down, and embedded #test
// directive execution.
package phonology
