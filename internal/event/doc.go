// Package event provides the canonical event record and the pure functions
// that operate on it.
//
// A Record is identified by the tuple (NormalizedTitle, Date, SourceURL).
// Normalize derives the matching key from a title so that reordered or
// restyled titles collapse to one identity. DetectChanges compares two
// records field by field so callers can skip redundant writes.
package event
