package source

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// Strategy extracts candidates from one family of calendar page layouts.
type Strategy interface {
	Name() string
	Candidates(doc *goquery.Document, sourceURL string) []event.Candidate
}

type registryEntry struct {
	pattern  string
	strategy Strategy
}

// Registry maps host patterns to strategies. A source whose host contains a
// registered pattern uses that strategy; any other source uses the fallback.
type Registry struct {
	entries  []registryEntry
	fallback Strategy
}

// NewRegistry creates a registry that falls back to fallback.
func NewRegistry(fallback Strategy) *Registry {
	return &Registry{fallback: fallback}
}

// Register adds a strategy for hosts containing pattern. Earlier
// registrations win.
func (r *Registry) Register(pattern string, s Strategy) {
	r.entries = append(r.entries, registryEntry{pattern: strings.ToLower(pattern), strategy: s})
}

// Lookup returns the strategy for sourceURL.
func (r *Registry) Lookup(sourceURL string) Strategy {
	host := ""
	if u, err := url.Parse(sourceURL); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	if host != "" {
		for _, e := range r.entries {
			if strings.Contains(host, e.pattern) {
				return e.strategy
			}
		}
	}
	return r.fallback
}

// DefaultRegistry returns the registry of known calendar platforms.
func DefaultRegistry() *Registry {
	r := NewRegistry(GenericStrategy{})
	r.Register("localist.com", CardStrategy{})
	r.Register("events.stanford.edu", CardStrategy{})
	r.Register("calendar.mit.edu", CardStrategy{})
	r.Register("talks.cam.ac.uk", TalkListStrategy{})
	return r
}

// HTMLAdapter reads event listings from calendar pages.
type HTMLAdapter struct {
	registry *Registry
}

// NewHTMLAdapter creates an HTMLAdapter using registry.
func NewHTMLAdapter(registry *Registry) *HTMLAdapter {
	return &HTMLAdapter{registry: registry}
}

func (a *HTMLAdapter) Name() string { return string(KindHTML) }

// Extract parses content and hands it to the strategy registered for
// sourceURL's host.
func (a *HTMLAdapter) Extract(content []byte, sourceURL string) ([]event.Candidate, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, NewFailure(FailureParse, sourceURL, ErrMalformed)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, NewFailure(FailureParse, sourceURL, err)
	}
	strategy := a.registry.Lookup(sourceURL)
	return dedupeCandidates(strategy.Candidates(doc, sourceURL)), nil
}

// GenericStrategy finds repeated event containers by common class names and
// falls back to link-bearing headings.
type GenericStrategy struct{}

func (GenericStrategy) Name() string { return "generic" }

const genericContainers = `.event, .event-item, .events-list-item, .views-row, .vevent, li.event, ` +
	`article.event, [itemtype*="schema.org/Event"], .calendar-item, .seminar`

var genericTitleSelectors = []string{
	".event-title", ".summary", "[itemprop=name]", "h2", "h3", "h4", "a[href]",
}

var genericDateSelectors = []string{
	"time[datetime]", ".date", ".event-date", ".dtstart", "[itemprop=startDate]", "time",
}

func (GenericStrategy) Candidates(doc *goquery.Document, sourceURL string) []event.Candidate {
	var out []event.Candidate
	doc.Find(genericContainers).Each(func(_ int, s *goquery.Selection) {
		// Only the outermost container of a nested match.
		if s.ParentsFiltered(genericContainers).Length() > 0 {
			return
		}
		out = append(out, containerCandidate(s, sourceURL))
	})
	if len(out) > 0 {
		return out
	}

	doc.Find("h2, h3").Each(func(_ int, h *goquery.Selection) {
		link := h.Find("a[href]").First()
		if link.Length() == 0 {
			return
		}
		section := h.AddSelection(h.NextUntil("h1, h2, h3"))
		out = append(out, event.Candidate{
			TitleText:    link.Text(),
			Context:      outerHTML(section),
			CandidateURL: attr(link, "href"),
			SourceURL:    sourceURL,
			Origin:       event.OriginHTML,
			DateText:     firstText(section, genericDateSelectors),
		})
	})
	return out
}

func containerCandidate(s *goquery.Selection, sourceURL string) event.Candidate {
	return event.Candidate{
		TitleText:    firstText(s, genericTitleSelectors),
		Context:      outerHTML(s),
		CandidateURL: attr(s.Find("a[href]").First(), "href"),
		SourceURL:    sourceURL,
		Origin:       event.OriginHTML,
		DateText:     firstDate(s),
	}
}

// CardStrategy reads Localist-style ".em-card" listings.
type CardStrategy struct{}

func (CardStrategy) Name() string { return "card" }

func (CardStrategy) Candidates(doc *goquery.Document, sourceURL string) []event.Candidate {
	var out []event.Candidate
	doc.Find(".em-card").Each(func(_ int, s *goquery.Selection) {
		titleLink := s.Find(".em-card_title a").First()
		lines := s.Find(".em-card_event-text")
		c := event.Candidate{
			TitleText:    titleLink.Text(),
			Context:      outerHTML(s),
			CandidateURL: attr(titleLink, "href"),
			SourceURL:    sourceURL,
			Origin:       event.OriginHTML,
			DateText:     event.CleanText(lines.Eq(0).Text()),
			Location:     event.CleanText(lines.Eq(1).Text()),
		}
		if c.TitleText == "" {
			c.TitleText = s.Find(".em-card_title").First().Text()
		}
		out = append(out, c)
	})
	return out
}

// TalkListStrategy reads talk listings where the speaker is the link text
// and the talk title is italicised.
type TalkListStrategy struct{}

func (TalkListStrategy) Name() string { return "talk-list" }

func (TalkListStrategy) Candidates(doc *goquery.Document, sourceURL string) []event.Candidate {
	var out []event.Candidate
	doc.Find("li.talk, .talk, ul.talks > li").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(".talk").Length() > 0 {
			return
		}
		out = append(out, event.Candidate{
			Context:      outerHTML(s),
			CandidateURL: attr(s.Find("a[href]").First(), "href"),
			SourceURL:    sourceURL,
			Origin:       event.OriginHTML,
			TitleProbes:  []string{"em", "i"},
			DateText:     firstDate(s),
		})
	})
	return out
}

func firstDate(s *goquery.Selection) string {
	if t := s.Find("time[datetime]").First(); t.Length() > 0 {
		if v := attr(t, "datetime"); v != "" {
			return NormalizeISODateTime(v)
		}
	}
	return firstText(s, genericDateSelectors)
}

func firstText(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := event.CleanText(s.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func outerHTML(s *goquery.Selection) string {
	var b strings.Builder
	s.Each(func(_ int, item *goquery.Selection) {
		if h, err := goquery.OuterHtml(item); err == nil {
			b.WriteString(h)
		}
	})
	return b.String()
}
