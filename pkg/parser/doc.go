// Package parser implements the Parser Orchestrator: composing a
// compiled Phonology and Morphology into a single morphophonology FST,
// applying it in both directions, ranking candidate analyses against a
// MorphemeLanguageModel, caching parses, and exporting a parser as a
// self-contained bundle.
package parser
