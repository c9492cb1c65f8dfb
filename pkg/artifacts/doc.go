// Package artifacts implements the on-disk directory tree the derived-
// resource compilers (pkg/phonology, pkg/morphology, pkg/lm, pkg/parser)
// and the Corpus Engine (pkg/corpus) read and write.
//
// Layout, rooted at config.InstanceConfig.PermanentStore + "/" + Name:
//
//	<root>/<name>/
//	  files/                         uploaded binary files
//	    reduced_files/               size-reduced derivatives
//	  corpora/corpus_<id>/           corpus_<id>.tbk[.gz][.t2c]
//	                                 corpus_<id>_transcriptions.txt[.gz]
//	  phonologies/phonology_<id>/    phonology_<id>.script/.foma/.sh/<binary>
//	  morphologies/morphology_<id>/  morphology_<id>.script/.foma/<binary>/_lexicon.pickle
//	  morpheme_language_models/morpheme_language_model_<id>/
//	                                 corpus.txt, vocab.txt, arpa.txt, trie.pickle
//	  morphological_parsers/morphological_parser_<id>/
//	                                 <parser files>
//	  users/<username>/
//
// This mirrors the teacher's pkg/storage/filesystem.go shape (a rootDir
// plus Join/MkdirAll/WriteFile/ReadFile helpers per resource), adapted
// from the teacher's module/version tree to this domain's resource tree.
package artifacts
