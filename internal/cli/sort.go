package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByHost  SortOrder = "host"
	SortByTitle SortOrder = "title"
)

// sortRecords sorts records based on the specified sort order
func sortRecords(recs []*event.Record, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].Date != recs[j].Date || recs[i].Time != recs[j].Time {
				return compareByDate(recs[i], recs[j])
			}
			return strings.ToLower(recs[i].Title) < strings.ToLower(recs[j].Title)
		})
	case SortByHost:
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].Host != recs[j].Host {
				return strings.ToLower(recs[i].Host) < strings.ToLower(recs[j].Host)
			}
			// Same host: chronological
			return compareByDate(recs[i], recs[j])
		})
	case SortByTitle:
		sort.SliceStable(recs, func(i, j int) bool {
			ti, tj := strings.ToLower(recs[i].Title), strings.ToLower(recs[j].Title)
			if ti != tj {
				return ti < tj
			}
			return compareByDate(recs[i], recs[j])
		})
	}
}

// compareByDate reports whether i starts before j. Placeholder times sort
// after timed events on the same day.
func compareByDate(i, j *event.Record) bool {
	if i.Date != j.Date {
		return i.Date < j.Date
	}
	mi, mj := event.ClockMinutes(i.Time), event.ClockMinutes(j.Time)
	if mi < 0 {
		mi = 24 * 60
	}
	if mj < 0 {
		mj = 24 * 60
	}
	return mi < mj
}
