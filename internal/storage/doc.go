// Package storage persists event records.
//
// Store is the persistence collaborator used by deduplication and export.
// FileStore keeps every record in a single JSON snapshot (events.json) in a
// data directory, by default ~/.local/share/seminar-cal/. PostgresStore keeps
// them in an events table with a unique index on the identity key.
package storage
