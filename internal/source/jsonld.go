package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// LDEvent is the subset of a schema.org Event the system reads.
type LDEvent struct {
	Name        string
	Description string
	StartDate   string
	URL         string
	Location    string
	Virtual     bool
}

// JSONLDAdapter reads schema.org Event objects embedded in a page.
type JSONLDAdapter struct{}

// NewJSONLDAdapter creates a JSONLDAdapter.
func NewJSONLDAdapter() *JSONLDAdapter { return &JSONLDAdapter{} }

func (a *JSONLDAdapter) Name() string { return string(KindJSONLD) }

// Extract returns one candidate per Event object found in the page's
// ld+json scripts. A page without scripts yields no candidates and no error.
func (a *JSONLDAdapter) Extract(content []byte, sourceURL string) ([]event.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, NewFailure(FailureParse, sourceURL, err)
	}

	events, parseErrs := FindLDEvents(doc)
	if len(events) == 0 && parseErrs > 0 {
		return nil, NewFailure(FailureParse, sourceURL, fmt.Errorf("%d unreadable ld+json blocks", parseErrs))
	}

	candidates := make([]event.Candidate, 0, len(events))
	for _, ev := range events {
		candidates = append(candidates, ev.Candidate(sourceURL))
	}
	return dedupeCandidates(candidates), nil
}

// Candidate converts the object into a candidate for sourceURL.
func (e LDEvent) Candidate(sourceURL string) event.Candidate {
	return event.Candidate{
		TitleText:    e.Name,
		Context:      strings.Join(nonEmpty(e.Name, e.Description, e.Location), "\n"),
		CandidateURL: e.URL,
		SourceURL:    sourceURL,
		Origin:       event.OriginJSONLD,
		DateText:     NormalizeISODateTime(e.StartDate),
		Description:  e.Description,
		Location:     e.Location,
		Virtual:      e.Virtual,
	}
}

// FindLDEvents decodes every ld+json script in doc and returns the Event
// objects, along with the number of scripts that failed to decode.
func FindLDEvents(doc *goquery.Document) ([]LDEvent, int) {
	var events []LDEvent
	failed := 0
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			failed++
			return
		}
		events = collectLDEvents(v, events)
	})
	return events, failed
}

func collectLDEvents(v any, out []LDEvent) []LDEvent {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			out = collectLDEvents(item, out)
		}
	case map[string]any:
		if graph, ok := node["@graph"]; ok {
			out = collectLDEvents(graph, out)
		}
		if isEventType(node["@type"]) {
			out = append(out, ldEventFrom(node))
		}
	}
	return out
}

func isEventType(t any) bool {
	switch typ := t.(type) {
	case string:
		return strings.HasSuffix(typ, "Event")
	case []any:
		for _, item := range typ {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

func ldEventFrom(node map[string]any) LDEvent {
	ev := LDEvent{
		Name:        stringField(node, "name"),
		Description: stringField(node, "description"),
		StartDate:   stringField(node, "startDate"),
		URL:         stringField(node, "url"),
	}
	mode := strings.ToLower(stringField(node, "eventAttendanceMode"))
	ev.Virtual = strings.Contains(mode, "online") || strings.Contains(mode, "mixed")

	loc, virtual := ldLocation(node["location"])
	ev.Location = loc
	ev.Virtual = ev.Virtual || virtual
	return ev
}

// ldLocation reads a location that may be text, a Place, a
// VirtualLocation or a list of them.
func ldLocation(v any) (string, bool) {
	switch loc := v.(type) {
	case string:
		return event.CleanText(loc), false
	case []any:
		name, virtual := "", false
		for _, item := range loc {
			n, vv := ldLocation(item)
			if name == "" {
				name = n
			}
			virtual = virtual || vv
		}
		return name, virtual
	case map[string]any:
		if t, _ := loc["@type"].(string); t == "VirtualLocation" {
			return "", true
		}
		parts := nonEmpty(stringField(loc, "name"), ldAddress(loc["address"]))
		return event.CleanText(strings.Join(parts, ", ")), false
	}
	return "", false
}

func ldAddress(v any) string {
	switch addr := v.(type) {
	case string:
		return addr
	case map[string]any:
		return strings.Join(nonEmpty(
			stringField(addr, "streetAddress"),
			stringField(addr, "addressLocality"),
		), ", ")
	}
	return ""
}

func stringField(node map[string]any, key string) string {
	switch v := node[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	case map[string]any:
		if id, ok := v["@id"].(string); ok {
			return id
		}
	}
	return ""
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04Z07:00",
}

// NormalizeISODateTime rewrites an ISO 8601 timestamp as "2006-01-02 3:04 PM"
// in its own offset so the text extractors read the wall-clock start. Other
// text is returned unchanged.
func NormalizeISODateTime(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02 3:04 PM")
		}
	}
	return s
}
