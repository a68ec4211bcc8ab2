// Package filter narrows stored seminar records for list and export.
//
// A Filter combines optional criteria; a record must satisfy every active
// criterion to match:
//   - Date range (inclusive, from ParseDateRange or explicit dates)
//   - Title, host and location substrings (case-insensitive, any of)
//   - Weekends only (Saturday/Sunday)
//   - Virtual only or in-person only
//
// Example usage:
//
//	from, to, err := filter.ParseDateRange("Oct 1-15", time.Now())
//	f := filter.NewFilter()
//	f.DateFrom, f.DateTo = from, to
//	f.Hosts = []string{"MIT"}
//	recs = f.Apply(recs)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// Attendance restricts records by their virtual flag.
type Attendance string

const (
	AttendanceAny      Attendance = ""
	AttendanceVirtual  Attendance = "virtual"
	AttendanceInPerson Attendance = "in-person"
)

// ParseAttendance accepts "", "any", "virtual" or "in-person".
func ParseAttendance(s string) (Attendance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return AttendanceAny, nil
	case "virtual", "online":
		return AttendanceVirtual, nil
	case "in-person", "inperson", "onsite":
		return AttendanceInPerson, nil
	}
	return AttendanceAny, fmt.Errorf("invalid attendance: %s (must be 'any', 'virtual' or 'in-person')", s)
}

// Filter represents record filtering criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Titles    []string `json:"titles,omitempty"`
	Hosts     []string `json:"hosts,omitempty"`
	Locations []string `json:"locations,omitempty"`

	WeekendsOnly bool       `json:"weekends_only,omitempty"`
	Attendance   Attendance `json:"attendance,omitempty"`
}

// NewFilter creates a filter that matches every record.
func NewFilter() *Filter {
	return &Filter{}
}

// IsEmpty reports whether the filter has no active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Titles) == 0 &&
		len(f.Hosts) == 0 &&
		len(f.Locations) == 0 &&
		!f.WeekendsOnly &&
		f.Attendance == AttendanceAny
}

// Matches reports whether rec satisfies all active criteria. Date criteria
// reject records whose date cannot be parsed.
func (f *Filter) Matches(rec *event.Record) bool {
	if f.IsEmpty() {
		return true
	}

	if f.DateFrom != nil || f.DateTo != nil || f.WeekendsOnly {
		d := event.ParseDate(rec.Date)
		if d.IsZero() {
			return false
		}
		if f.DateFrom != nil && d.Before(event.Day(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && d.After(event.Day(*f.DateTo)) {
			return false
		}
		if f.WeekendsOnly {
			if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
				return false
			}
		}
	}

	switch f.Attendance {
	case AttendanceVirtual:
		if !rec.IsVirtual {
			return false
		}
	case AttendanceInPerson:
		if rec.IsVirtual {
			return false
		}
	}

	return containsAny(rec.Title, f.Titles) &&
		containsAny(rec.Host, f.Hosts) &&
		containsAny(rec.Location, f.Locations)
}

// containsAny reports whether s contains one of needles, ignoring case.
// An empty needle list always matches.
func containsAny(s string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	lower := strings.ToLower(s)
	for _, n := range needles {
		if n = strings.TrimSpace(n); n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// Apply returns the records that match. An empty filter returns recs unchanged.
func (f *Filter) Apply(recs []*event.Record) []*event.Record {
	if f.IsEmpty() {
		return recs
	}

	var filtered []*event.Record
	for _, rec := range recs {
		if f.Matches(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// String returns a human-readable description of the active criteria.
// Format: "From: Oct 1, 2025 | To: Oct 15, 2025 | Hosts: MIT | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Titles) > 0 {
		parts = append(parts, fmt.Sprintf("Titles: %s", strings.Join(f.Titles, ", ")))
	}
	if len(f.Hosts) > 0 {
		parts = append(parts, fmt.Sprintf("Hosts: %s", strings.Join(f.Hosts, ", ")))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, fmt.Sprintf("Locations: %s", strings.Join(f.Locations, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	if f.Attendance != AttendanceAny {
		parts = append(parts, fmt.Sprintf("Attendance: %s", f.Attendance))
	}
	return strings.Join(parts, " | ")
}
