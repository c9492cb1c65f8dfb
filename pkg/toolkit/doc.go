// Package toolkit wraps invocation of the external FST and language-model
// binaries the derived-resource compilers shell out to: foma, flookup,
// tgrep2, and estimate-ngram. Every invocation runs under a context
// carrying the configured timeout and is panic-recovered, following the
// teacher's pkg/async SafeGo idiom adapted to a synchronous os/exec call
// instead of a goroutine.
package toolkit
