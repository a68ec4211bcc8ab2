package event

import "time"

// ParseDate parses an ISO record date. Returns time.Time{} (zero value)
// if the date is malformed.
func ParseDate(date string) time.Time {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatDate renders t as an ISO record date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ClockMinutes converts a canonical "H:MM AM/PM" time to minutes after
// midnight. Placeholder or unparseable times return -1.
func ClockMinutes(clock string) int {
	t, err := time.Parse("3:04 PM", clock)
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}

// StartTime combines the record's date and time in loc. ok is false when
// the time is a placeholder; the returned time is then midnight.
func (r *Record) StartTime(loc *time.Location) (start time.Time, ok bool) {
	d := ParseDate(r.Date)
	if d.IsZero() {
		return time.Time{}, false
	}
	m := ClockMinutes(r.Time)
	if m < 0 {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc), false
	}
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, loc), true
}
