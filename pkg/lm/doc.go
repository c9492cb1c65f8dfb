// Package lm implements the LM Builder: the write_corpus/
// write_vocabulary/write_arpa/generate_trie pipeline that trains a
// MorphemeLanguageModel from a corpus, perplexity evaluation via
// repeated train/test splits, and trie-backed sequence scoring.
package lm
