package storage

import (
	"context"
	"errors"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

var (
	// ErrNotFound is returned when no stored record matches.
	ErrNotFound = errors.New("event not found")
	// ErrDuplicateKey is returned when an insert would create a second
	// record for an existing identity key.
	ErrDuplicateKey = errors.New("duplicate event key")
)

// Candidate is a stored record that may be a fuzzy match for a new one.
type Candidate struct {
	ID              string
	Title           string
	NormalizedTitle string
	URL             string
}

// ListFilter narrows List results. Dates are inclusive ISO dates; empty
// fields do not filter.
type ListFilter struct {
	From     string
	To       string
	Category string
}

// Store persists event records. Each call is independently atomic.
type Store interface {
	// FindByKey returns the id stored for key, or ErrNotFound.
	FindByKey(ctx context.Context, key event.Key) (string, error)
	// FindCandidates returns records sharing date and source URL.
	FindCandidates(ctx context.Context, date, sourceURL string) ([]Candidate, error)
	// Insert stores a new record and returns its id.
	Insert(ctx context.Context, rec *event.Record) (string, error)
	// Update rewrites the listed fields of the record with rec.ID.
	Update(ctx context.Context, rec *event.Record, fields []event.Field) error
	// Exists reports whether a record with rec's key is stored.
	Exists(ctx context.Context, rec *event.Record) (bool, error)
	// Get returns a copy of the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*event.Record, error)
	// List returns matching records ordered by date, time and title.
	List(ctx context.Context, filter ListFilter) ([]*event.Record, error)
	Close() error
}

func (f ListFilter) matches(rec *event.Record) bool {
	if f.From != "" && rec.Date < f.From {
		return false
	}
	if f.To != "" && rec.Date > f.To {
		return false
	}
	if f.Category != "" {
		for _, c := range rec.Categories {
			if c == f.Category {
				return true
			}
		}
		return false
	}
	return true
}
