package dedup

import (
	"strings"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

const (
	// LocationRatio is the title similarity that, with equal date, time and
	// location, marks a duplicate.
	LocationRatio = 0.85
	// StrictRatio is the title similarity that, with equal date and time,
	// marks a duplicate regardless of location.
	StrictRatio = 0.95
)

// DefaultRecentLimit bounds a RecentSet created with a non-positive limit.
const DefaultRecentLimit = 500

// RecentSet remembers recently accepted records so near-duplicates from
// other sources in the same run can be skipped before they are stored.
type RecentSet struct {
	limit int
	items []*event.Record
}

// NewRecentSet creates a set holding at most limit records.
func NewRecentSet(limit int) *RecentSet {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RecentSet{limit: limit}
}

// IsDuplicate reports whether rec matches a remembered record.
func (s *RecentSet) IsDuplicate(rec *event.Record) bool {
	title := strings.ToLower(event.CleanText(rec.Title))
	for _, seen := range s.items {
		if seen.Date != rec.Date || seen.Time != rec.Time {
			continue
		}
		r := Ratio(strings.ToLower(event.CleanText(seen.Title)), title)
		if r >= StrictRatio {
			return true
		}
		if r >= LocationRatio && strings.EqualFold(event.CleanText(seen.Location), event.CleanText(rec.Location)) {
			return true
		}
	}
	return false
}

// Add remembers rec, dropping the oldest record when full.
func (s *RecentSet) Add(rec *event.Record) {
	s.items = append(s.items, rec)
	if len(s.items) > s.limit {
		s.items = s.items[len(s.items)-s.limit:]
	}
}

// Len returns the number of remembered records.
func (s *RecentSet) Len() int { return len(s.items) }
