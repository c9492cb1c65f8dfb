// Package store persists Form, Collection, Corpus, Phonology, Morphology,
// MorphemeLanguageModel and MorphologicalParser rows against Postgres or
// SQLite, chosen by config.StoreConfig.Type.
//
// Every mutating method follows the same contract: Update loads the
// current row, rejects a no-op submission with domain.NotNewError via
// backup.Identical, otherwise writes a backup.*Backup row sharing the
// live row's UUID before applying the change; Delete always writes a
// final backup before removing the live row. History resolves by id or
// UUID and returns a nil "current" once the live row is gone, pairing it
// with backups newest-first.
//
// The connection setup and context-propagated, span-instrumented query
// methods follow the teacher's Postgres storage layer; this package
// narrows that layer's module/version schema down to the derived-resource
// entities above and adds the backup-on-mutate and vacuous-update
// behavior the teacher's storage layer has no equivalent of.
package store
