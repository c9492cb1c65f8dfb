// Package backup implements the backup-on-mutate contract shared by
// every resource store: every update or delete writes a
// snapshot row sharing the live entity's UUID before the mutation takes
// effect, and history lookups can resolve by either the live id or the
// UUID once the live row is gone.
//
// The shape is narrowed from a general audit trail (many events per
// entity, queried by time range) down to a version history: one row per
// prior state, queried by id or UUID.
package backup
