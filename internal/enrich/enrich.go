// Package enrich backfills generic or missing record fields from the
// record's detail page.
package enrich

import (
	"bytes"
	"context"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pfrederiksen/seminar-cal/internal/event"
	"github.com/pfrederiksen/seminar-cal/internal/extract"
	"github.com/pfrederiksen/seminar-cal/internal/fetch"
	"github.com/pfrederiksen/seminar-cal/internal/logger"
	"github.com/pfrederiksen/seminar-cal/internal/source"
)

// NeedsEnrichment reports whether rec has a generic title, a generic
// description or a placeholder time.
func NeedsEnrichment(rec *event.Record) bool {
	return event.IsGenericTitle(rec.Title) ||
		event.IsGenericDescription(rec.Description) ||
		event.IsPlaceholderTime(rec.Time)
}

// Enricher fetches detail pages through a run-scoped PageCache.
type Enricher struct {
	fetcher fetch.Fetcher
	cache   *PageCache
	strip   *bluemonday.Policy
}

// New creates an Enricher. A nil cache gets a fresh one.
func New(f fetch.Fetcher, cache *PageCache) *Enricher {
	if cache == nil {
		cache = NewPageCache()
	}
	return &Enricher{
		fetcher: f,
		cache:   cache,
		strip:   bluemonday.StrictPolicy(),
	}
}

// EnrichIfNeeded returns rec unchanged when nothing needs backfilling or
// the record has no detail URL. Otherwise it returns a copy with generic or
// missing fields filled from the detail page; fields that already hold good
// values are never replaced. A failed fetch is logged and rec is returned
// as-is.
func (e *Enricher) EnrichIfNeeded(ctx context.Context, rec *event.Record) *event.Record {
	if !NeedsEnrichment(rec) || !hasDetailURL(rec) {
		return rec
	}

	body, err := e.cache.Get(ctx, e.fetcher, rec.URL)
	if err != nil {
		logger.Default().WarnErr("Detail page fetch failed", logger.Fields{
			"url":        rec.URL,
			"source_url": rec.SourceURL,
		}, err)
		logger.IncrCounter("enrich.fetch_failed")
		return rec
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		logger.Default().WarnErr("Detail page unreadable", logger.Fields{"url": rec.URL}, err)
		return rec
	}

	out := rec.Clone()
	e.apply(out, e.readPage(doc, rec.URL))
	if event.IsGenericTitle(out.Title) {
		if title := FallbackTitle(out); title != "" {
			out.SetTitle(title)
		}
	}
	if len(event.DetectChanges(rec, out)) > 0 {
		logger.IncrCounter("enrich.enriched")
	}
	return out
}

func hasDetailURL(rec *event.Record) bool {
	return rec.URL != "" && rec.URL != rec.SourceURL
}

// pageFields holds the candidate values found on a detail page, each list
// in priority order.
type pageFields struct {
	titles       []string
	descriptions []string
	times        []string
	location     string
	virtual      bool
}

func (e *Enricher) readPage(doc *goquery.Document, pageURL string) pageFields {
	var f pageFields

	ldEvents, _ := source.FindLDEvents(doc)
	if ld, ok := pickLDEvent(ldEvents, pageURL); ok {
		c := ld.Candidate(pageURL)
		f.titles = append(f.titles, ld.Name)
		f.descriptions = append(f.descriptions, ld.Description)
		f.times = append(f.times, c.DateText)
		f.location = ld.Location
		f.virtual = ld.Virtual
	}

	f.titles = append(f.titles,
		metaContent(doc, "og:title"),
		metaContent(doc, "twitter:title"),
		event.CleanText(doc.Find("h1").First().Text()),
	)
	f.descriptions = append(f.descriptions,
		metaContent(doc, "og:description"),
		metaContent(doc, "description"),
		metaContent(doc, "twitter:description"),
		largestParagraph(doc),
	)
	doc.Find("time[datetime]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("datetime")
		f.times = append(f.times, source.NormalizeISODateTime(v))
		return true
	})
	return f
}

func (e *Enricher) apply(rec *event.Record, f pageFields) {
	if event.IsGenericTitle(rec.Title) {
		for _, t := range f.titles {
			if t = cleanTitle(t); t != "" {
				rec.SetTitle(t)
				break
			}
		}
	}
	if event.IsGenericDescription(rec.Description) {
		for _, d := range f.descriptions {
			if d = e.plain(d); !event.IsGenericDescription(d) {
				rec.Description = d
				break
			}
		}
	}
	if event.IsPlaceholderTime(rec.Time) {
		for _, text := range f.times {
			if t, ok := extract.ExtractTime(text); ok {
				rec.Time = t
				break
			}
		}
	}
	if rec.Location == "" && f.location != "" {
		rec.Location = event.CleanText(f.location)
	}
	if f.virtual {
		rec.IsVirtual = true
	}
}

// pickLDEvent prefers the object whose url matches the page.
func pickLDEvent(events []source.LDEvent, pageURL string) (source.LDEvent, bool) {
	if len(events) == 0 {
		return source.LDEvent{}, false
	}
	for _, ev := range events {
		if ev.URL != "" && extract.ResolveURL(pageURL, ev.URL) == pageURL {
			return ev, true
		}
	}
	return events[0], true
}

func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(`meta[property="` + name + `"], meta[name="` + name + `"]`).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

// largestParagraph returns the longest <p> text of at least
// event.MinDescriptionLen characters.
func largestParagraph(doc *goquery.Document) string {
	best := ""
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := event.CleanText(s.Text())
		if len(text) >= event.MinDescriptionLen && len(text) > len(best) {
			best = text
		}
	})
	return best
}

// cleanTitle drops a trailing " | Site Name" and rejects generic or
// date-like values.
func cleanTitle(t string) string {
	t = event.CleanText(t)
	if i := strings.Index(t, " | "); i > 0 {
		t = t[:i]
	}
	if t == "" || event.IsGenericTitle(t) || extract.IsDateTimeTitle(t) {
		return ""
	}
	return t
}

func (e *Enricher) plain(s string) string {
	return event.CleanText(html.UnescapeString(e.strip.Sanitize(s)))
}

var (
	idSegmentRE = regexp.MustCompile(`^\d+$|^[0-9a-f]{8}-[0-9a-f-]+$`)
	slugSplitRE = regexp.MustCompile(`[-_+.]+`)
	titleCaser  = cases.Title(language.English)
)

// FallbackTitle synthesizes a title for a record whose title is still
// generic: the last descriptive path segment of its URL, or else
// "{host} {section} Calendar {date}". It returns "" when the record has no
// detail URL.
func FallbackTitle(rec *event.Record) string {
	if !hasDetailURL(rec) {
		return ""
	}
	u, err := url.Parse(rec.URL)
	if err != nil {
		return ""
	}

	var segments []string
	for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		seg = strings.TrimSuffix(strings.ToLower(seg), ".html")
		if seg == "" || idSegmentRE.MatchString(seg) {
			continue
		}
		segments = append(segments, seg)
	}

	if n := len(segments); n > 0 {
		slug := event.CleanText(slugSplitRE.ReplaceAllString(segments[n-1], " "))
		if title := titleCaser.String(slug); len(title) >= 4 && !event.IsGenericTitle(title) && !extract.IsDateTimeTitle(title) {
			return title
		}
	}

	parts := []string{extract.HostName(rec.SourceURL)}
	if len(segments) > 0 {
		parts = append(parts, titleCaser.String(slugSplitRE.ReplaceAllString(segments[0], " ")))
	}
	parts = append(parts, "Calendar")
	if d := event.ParseDate(rec.Date); !d.IsZero() {
		parts = append(parts, d.Format("Jan 2, 2006"))
	}
	return event.CleanText(strings.Join(parts, " "))
}
