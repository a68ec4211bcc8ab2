// Package calendar renders stored events as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

const (
	ProductID = "-//seminar-cal//seminar-cal//EN"
	uidDomain = "seminar-cal"

	// DefaultDuration is the length given to timed events; records carry
	// only a start time.
	DefaultDuration = time.Hour
)

// Options control feed generation.
type Options struct {
	// Name is the calendar display name (X-WR-CALNAME).
	Name string
	// Location interprets record wall-clock times; nil means UTC.
	Location *time.Location
	// Now stamps DTSTAMP; nil means time.Now.
	Now func() time.Time
}

// GenerateICS renders recs as one VCALENDAR. Records with a placeholder
// time become all-day events.
func GenerateICS(recs []*event.Record, opts Options) string {
	return build(recs, opts).Serialize()
}

// WriteICS writes the feed for recs to w.
func WriteICS(w io.Writer, recs []*event.Record, opts Options) error {
	if err := build(recs, opts).SerializeTo(w); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

func build(recs []*event.Record, opts Options) *ics.Calendar {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	stamp := now().UTC()
	for _, rec := range recs {
		start, timed := rec.StartTime(loc)
		if start.IsZero() {
			continue
		}

		ev := cal.AddEvent(rec.ID + "@" + uidDomain)
		ev.SetDtStampTime(stamp)
		if !rec.UpdatedAt.IsZero() {
			ev.SetModifiedAt(rec.UpdatedAt)
		}
		if timed {
			ev.SetStartAt(start)
			ev.SetEndAt(start.Add(DefaultDuration))
		} else {
			ev.SetAllDayStartAt(start)
			ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		}

		ev.SetSummary(rec.Title)
		ev.SetDescription(description(rec))
		if rec.Location != "" {
			ev.SetLocation(rec.Location)
		}
		if rec.URL != "" {
			ev.SetURL(rec.URL)
		}
		if len(rec.Categories) > 0 {
			ev.AddProperty(ics.ComponentPropertyCategories, strings.Join(rec.Categories, ","))
		}
		ev.SetStatus(ics.ObjectStatusConfirmed)
	}
	return cal
}

func description(rec *event.Record) string {
	var parts []string
	if rec.Host != "" {
		parts = append(parts, "Host: "+rec.Host)
	}
	if rec.Description != "" {
		parts = append(parts, rec.Description)
	}
	if rec.RequiresRegistration {
		parts = append(parts, "Registration required.")
	}
	if rec.URL != "" {
		parts = append(parts, "Details: "+rec.URL)
	}
	return strings.Join(parts, "\n\n")
}
