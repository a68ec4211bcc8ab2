package source

import (
	"errors"
	"os"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return data
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    Kind
		want    string
		wantErr bool
	}{
		{KindFeed, "feed", false},
		{KindHTML, "html", false},
		{"", "html", false},
		{"JSONLD", "jsonld", false},
		{KindSearch, "search", false},
		{"ftp", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			a, err := New(tt.kind, Options{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if err == nil && a.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", a.Name(), tt.want)
			}
		})
	}
}

func TestFailure(t *testing.T) {
	inner := errors.New("connection reset")
	err := error(NewFailure(FailureNetwork, "https://x.example.org", inner))

	if !errors.Is(err, ErrNetwork) {
		t.Error("errors.Is(err, ErrNetwork) = false")
	}
	if errors.Is(err, ErrMalformed) {
		t.Error("network failure matched ErrMalformed")
	}
	if !errors.Is(err, inner) {
		t.Error("failure does not unwrap to its cause")
	}
	if KindOf(err) != FailureNetwork {
		t.Errorf("KindOf() = %q", KindOf(err))
	}
	if KindOf(errors.New("other")) != FailureParse {
		t.Error("KindOf(plain error) should default to parse")
	}
}

type panickyAdapter struct{}

func (panickyAdapter) Name() string { return "panicky" }

func (panickyAdapter) Extract([]byte, string) ([]event.Candidate, error) {
	panic("index out of range")
}

func TestSafeExtract_RecoversPanic(t *testing.T) {
	got, err := SafeExtract(panickyAdapter{}, []byte("x"), "https://x.example.org")
	if len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want parse failure", err)
	}
}

func TestFeedAdapter_Extract(t *testing.T) {
	a := NewFeedAdapter()
	got, err := a.Extract(loadFixture(t, "events.rss"), "https://cs.example.edu/events.rss")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}

	first := got[0]
	if first.TitleText != "Deep Learning for Protein Design" {
		t.Errorf("TitleText = %q", first.TitleText)
	}
	if first.CandidateURL != "https://cs.example.edu/events/dl-protein" {
		t.Errorf("CandidateURL = %q", first.CandidateURL)
	}
	if first.DateText != "" {
		t.Errorf("publish date leaked into DateText: %q", first.DateText)
	}
	if first.Origin != event.OriginFeed || first.SourceURL != "https://cs.example.edu/events.rss" {
		t.Errorf("Origin/SourceURL = %q/%q", first.Origin, first.SourceURL)
	}

	second := got[1]
	if second.DateText != "2025-10-30 12:00 PM" {
		t.Errorf("DateText from ev:startdate = %q", second.DateText)
	}
	if second.Location != "Room 310" {
		t.Errorf("Location from ev:location = %q", second.Location)
	}
}

func TestFeedAdapter_Malformed(t *testing.T) {
	got, err := NewFeedAdapter().Extract([]byte("<html><body>not a feed"), "https://x.example.org/feed")
	if len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestHTMLAdapter_Generic(t *testing.T) {
	a := NewHTMLAdapter(DefaultRegistry())
	got, err := a.Extract(loadFixture(t, "generic_calendar.html"), "https://cs.example.edu/events")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2 (nested and repeated rows collapse)", len(got))
	}

	tests := []struct {
		title, url, date string
	}{
		{"Dr. Jane Lee", "/events/123", "Friday, October 10, 2025"},
		{"Graph Neural Networks for Drug Discovery", "/events/124", "2025-10-16 3:30 PM"},
	}
	for i, tt := range tests {
		c := got[i]
		if c.TitleText != tt.title || c.CandidateURL != tt.url || c.DateText != tt.date {
			t.Errorf("candidate %d = {%q %q %q}, want {%q %q %q}",
				i, c.TitleText, c.CandidateURL, c.DateText, tt.title, tt.url, tt.date)
		}
		if c.Context == "" {
			t.Errorf("candidate %d has empty context", i)
		}
	}
}

func TestHTMLAdapter_HeadingFallback(t *testing.T) {
	a := NewHTMLAdapter(DefaultRegistry())
	got, err := a.Extract(loadFixture(t, "headings_calendar.html"), "https://bio.example.org/seminars")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].TitleText != "CRISPR Screens in Primary Cells" {
		t.Errorf("TitleText = %q", got[0].TitleText)
	}
	if got[1].CandidateURL != "https://bio.example.org/talks/atlas" {
		t.Errorf("CandidateURL = %q", got[1].CandidateURL)
	}
}

func TestHTMLAdapter_CardStrategy(t *testing.T) {
	a := NewHTMLAdapter(DefaultRegistry())
	got, err := a.Extract(loadFixture(t, "localist_calendar.html"), "https://events.stanford.edu/calendar")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].TitleText != "Quantum Sensing with Spins" {
		t.Errorf("TitleText = %q", got[0].TitleText)
	}
	if got[0].DateText != "Tuesday, October 14, 2025 at 3:00pm" {
		t.Errorf("DateText = %q", got[0].DateText)
	}
	if got[0].Location != "Gates Computer Science Building, 104" {
		t.Errorf("Location = %q", got[0].Location)
	}
}

func TestHTMLAdapter_TalkListStrategy(t *testing.T) {
	a := NewHTMLAdapter(DefaultRegistry())
	got, err := a.Extract(loadFixture(t, "talks_list.html"), "https://talks.cam.ac.uk/show/index/1")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	c := got[0]
	if c.TitleText != "" {
		t.Errorf("TitleText = %q, want empty so probes decide", c.TitleText)
	}
	if len(c.TitleProbes) == 0 || c.TitleProbes[0] != "em" {
		t.Errorf("TitleProbes = %v", c.TitleProbes)
	}
	if c.DateText != "Wednesday 15 October 2025, 14:00" {
		t.Errorf("DateText = %q", c.DateText)
	}
	if c.CandidateURL != "/talk/index/9001" {
		t.Errorf("CandidateURL = %q", c.CandidateURL)
	}
}

func TestHTMLAdapter_Empty(t *testing.T) {
	_, err := NewHTMLAdapter(DefaultRegistry()).Extract([]byte("   "), "https://x.example.org")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

type namedStrategy string

func (s namedStrategy) Name() string { return string(s) }

func (s namedStrategy) Candidates(*goquery.Document, string) []event.Candidate { return nil }

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(namedStrategy("fallback"))
	r.Register("localist.com", namedStrategy("card"))
	r.Register("Talks.Example.org", namedStrategy("talks"))
	r.Register("example.org", namedStrategy("example"))

	tests := []struct {
		url  string
		want string
	}{
		{"https://mit.localist.com/calendar", "card"},
		{"https://talks.example.org/list", "talks"},
		{"https://www.example.org/events", "example"},
		{"https://cs.example.edu/events", "fallback"},
		{"::bad", "fallback"},
	}
	for _, tt := range tests {
		if got := r.Lookup(tt.url).Name(); got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestJSONLDAdapter_Extract(t *testing.T) {
	got, err := NewJSONLDAdapter().Extract(loadFixture(t, "jsonld_event.html"), "https://bio.example.org/events")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}

	c := got[0]
	if c.TitleText != "Causal Inference for Genomics" {
		t.Errorf("TitleText = %q", c.TitleText)
	}
	if c.DateText != "2025-10-22 4:00 PM" {
		t.Errorf("DateText = %q", c.DateText)
	}
	if c.Location != "Broad Auditorium, 415 Main St, Cambridge" {
		t.Errorf("Location = %q", c.Location)
	}
	if !c.Virtual {
		t.Error("mixed attendance mode should mark the event virtual")
	}
	if c.CandidateURL != "https://bio.example.org/events/causal" || c.Origin != event.OriginJSONLD {
		t.Errorf("CandidateURL/Origin = %q/%q", c.CandidateURL, c.Origin)
	}

	online := got[1]
	if online.DateText != "2025-11-03" || !online.Virtual || online.Location != "" {
		t.Errorf("virtual event = %+v", online)
	}
}

func TestJSONLDAdapter_OnlyBrokenScripts(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">{broken</script></head></html>`)
	_, err := NewJSONLDAdapter().Extract(page, "https://x.example.org")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}

	got, err := NewJSONLDAdapter().Extract([]byte(`<html><body>no data</body></html>`), "https://x.example.org")
	if err != nil || len(got) != 0 {
		t.Errorf("page without scripts = %v, %v; want no candidates and no error", got, err)
	}
}

func TestSearchAdapter_Extract(t *testing.T) {
	body := []byte(`{"results": [
		{"title": "Machine Learning Seminar: Robust Models", "url": "https://a.example.edu/ml", "content": "Talk on October 20, 2025"},
		{"title": "Campus parking update", "url": "https://a.example.edu/parking", "content": "Lots closed"},
		{"title": "Genomics Day", "url": "https://b.example.org/gd", "content": "machine learning for genomics"}
	]}`)

	a := NewSearchAdapter([]string{"Machine Learning", "genomics"})
	got, err := a.Extract(body, "https://search.example.com/v1")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].CandidateURL != "https://a.example.edu/ml" || got[1].CandidateURL != "https://b.example.org/gd" {
		t.Errorf("kept %q and %q", got[0].CandidateURL, got[1].CandidateURL)
	}
	if got[0].Origin != event.OriginSearch {
		t.Errorf("Origin = %q", got[0].Origin)
	}
}

func TestSearchAdapter_Score(t *testing.T) {
	a := NewSearchAdapter([]string{"genomics", "biology"})
	tests := []struct {
		hit  SearchHit
		want int
	}{
		{SearchHit{Title: "Genomics Day", Content: "genomics and biology"}, 4},
		{SearchHit{Title: "Open House", Content: "biology"}, 1},
		{SearchHit{Title: "Open House", Content: "tours"}, 0},
	}
	for _, tt := range tests {
		if got := a.Score(tt.hit); got != tt.want {
			t.Errorf("Score(%+v) = %d, want %d", tt.hit, got, tt.want)
		}
	}
}

func TestSearchAdapter_BareArrayAndErrors(t *testing.T) {
	a := NewSearchAdapter(nil)
	got, err := a.Extract([]byte(`[{"title": "Any Talk", "url": "https://x.example.org/1", "content": ""}]`), "https://search.example.com")
	if err != nil || len(got) != 1 {
		t.Fatalf("bare array = %d candidates, err %v", len(got), err)
	}

	if _, err := a.Extract([]byte(`<html>`), "https://search.example.com"); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestSearchRequestURL(t *testing.T) {
	got, err := SearchRequestURL("https://search.example.com/v1?lang=en", "biology seminar", "k123")
	if err != nil {
		t.Fatalf("SearchRequestURL() error = %v", err)
	}
	want := "https://search.example.com/v1?api_key=k123&lang=en&q=biology+seminar"
	if got != want {
		t.Errorf("SearchRequestURL() = %q, want %q", got, want)
	}
}
