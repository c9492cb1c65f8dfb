// Package domain holds the core entity types of the Online Linguistic
// Database: Form, Corpus, FormSearch, Phonology, Morphology,
// MorphemeLanguageModel, MorphologicalParser and their backup rows, plus
// the shared error taxonomy and morpheme-delimiter conventions used
// throughout the compilation pipeline.
package domain
