package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/seminar-cal/internal/event"
	"github.com/pfrederiksen/seminar-cal/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// EventList contains stored events to be output
type EventList struct {
	ListedAt   time.Time       `json:"listed_at"`
	Events     []*event.Record `json:"events"`
	EventCount int             `json:"event_count"`
}

// WriteStats writes a run summary in the specified format
func WriteStats(w io.Writer, stats pipeline.Stats, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, stats)
	case FormatText:
		return writeStatsText(w, stats)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteEvents writes stored events in the specified format
func WriteEvents(w io.Writer, list *EventList, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, list)
	case FormatText:
		return writeEventsText(w, list, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeStatsText(w io.Writer, s pipeline.Stats) error {
	fmt.Fprintf(w, "Sources:   %d (%d failed)\n", s.Sources, s.Failed())
	fmt.Fprintf(w, "Attempted: %d\n", s.Attempted)
	fmt.Fprintf(w, "Kept:      %d (%d new, %d updated, %d unchanged)\n", s.Kept, s.Inserted, s.Updated, s.Unchanged)
	fmt.Fprintf(w, "Skipped:   %d (%d near-duplicates)\n", s.Skipped, s.Duplicates)
	if s.Enriched > 0 {
		fmt.Fprintf(w, "Enriched:  %d\n", s.Enriched)
	}

	if len(s.SourceFailures) > 0 {
		parts := make([]string, 0, len(s.SourceFailures))
		for kind, n := range s.SourceFailures {
			parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
		}
		sort.Strings(parts)
		fmt.Fprintf(w, "Failures:  %s\n", strings.Join(parts, " "))
	}
	return nil
}

func writeEventsText(w io.Writer, list *EventList, verbose bool) error {
	if list.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, rec := range list.Events {
		fmt.Fprintf(w, "%s %-8s %s", rec.Date, rec.Time, rec.Title)
		if rec.Host != "" {
			fmt.Fprintf(w, " (%s)", rec.Host)
		}
		fmt.Fprintln(w)
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", rec.ID)
			if rec.Location != "" {
				fmt.Fprintf(w, "     Location: %s\n", rec.Location)
			}
			if len(rec.Categories) > 0 {
				fmt.Fprintf(w, "     Categories: %s\n", strings.Join(rec.Categories, ", "))
			}
			if rec.URL != "" {
				fmt.Fprintf(w, "     URL: %s\n", rec.URL)
			}
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", list.EventCount)
	return nil
}
