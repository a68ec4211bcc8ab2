package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

var stamp = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func record(t *testing.T, id string, fields event.Record) *event.Record {
	t.Helper()
	if fields.SourceURL == "" {
		fields.SourceURL = "https://cs.example.edu/events"
	}
	rec, err := event.NewRecord(fields)
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}
	rec.ID = id
	return rec
}

func TestGenerateICS(t *testing.T) {
	recs := []*event.Record{
		record(t, "evt-1", event.Record{
			Title:      "Protein Design Seminar",
			Date:       "2025-10-10",
			Time:       "4:00 PM",
			Location:   "Gates Hall",
			URL:        "https://cs.example.edu/events/1",
			Host:       "Example",
			Categories: []string{"Biology"},
		}),
		record(t, "evt-2", event.Record{
			Title: "Reading Group",
			Date:  "2025-10-12",
		}),
	}

	out := GenerateICS(recs, Options{Name: "Seminars", Now: func() time.Time { return stamp }})

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + ProductID,
		"METHOD:PUBLISH",
		"X-WR-CALNAME:Seminars",
		"UID:evt-1@seminar-cal",
		"DTSTAMP:20250901T120000Z",
		"DTSTART:20251010T160000Z",
		"DTEND:20251010T170000Z",
		"SUMMARY:Protein Design Seminar",
		"LOCATION:Gates Hall",
		"URL:https://cs.example.edu/events/1",
		"CATEGORIES:Biology",
		"STATUS:CONFIRMED",
		"UID:evt-2@seminar-cal",
		"DTSTART;VALUE=DATE:20251012",
		"DTEND;VALUE=DATE:20251013",
		"END:VCALENDAR",
	}
	for _, field := range requiredFields {
		if !strings.Contains(out, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("VEVENT count = %d, want 2", got)
	}
	if !strings.Contains(out, "\r\n") {
		t.Error("ICS should use \\r\\n line endings")
	}
}

func TestGenerateICS_Location(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	recs := []*event.Record{record(t, "evt-1", event.Record{Title: "Colloquium", Date: "2025-10-10", Time: "4:00 PM"})}

	out := GenerateICS(recs, Options{Location: ny, Now: func() time.Time { return stamp }})
	if !strings.Contains(out, "DTSTART:20251010T200000Z") {
		t.Errorf("expected 4 PM Eastern as 20:00 UTC, got:\n%s", out)
	}
}

func TestGenerateICS_SpecialCharacters(t *testing.T) {
	recs := []*event.Record{record(t, "evt-1", event.Record{
		Title: "Genomics; Methods, Tools",
		Date:  "2025-10-10",
	})}

	out := GenerateICS(recs, Options{Now: func() time.Time { return stamp }})
	if !strings.Contains(out, `SUMMARY:Genomics\; Methods\, Tools`) {
		t.Errorf("special characters not escaped:\n%s", out)
	}
}

func TestWriteICS(t *testing.T) {
	var buf bytes.Buffer
	recs := []*event.Record{record(t, "evt-1", event.Record{Title: "Colloquium", Date: "2025-10-10"})}
	if err := WriteICS(&buf, recs, Options{Now: func() time.Time { return stamp }}); err != nil {
		t.Fatalf("WriteICS() error = %v", err)
	}
	if !strings.Contains(buf.String(), "SUMMARY:Colloquium") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestDescription(t *testing.T) {
	rec := record(t, "evt-1", event.Record{
		Title:                "Colloquium",
		Date:                 "2025-10-10",
		Description:          "A talk.",
		Host:                 "MIT",
		URL:                  "https://cs.example.edu/e/1",
		RequiresRegistration: true,
	})
	want := "Host: MIT\n\nA talk.\n\nRegistration required.\n\nDetails: https://cs.example.edu/e/1"
	if got := description(rec); got != want {
		t.Errorf("description() = %q, want %q", got, want)
	}
}
