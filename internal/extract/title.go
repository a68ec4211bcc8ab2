package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

const (
	// DateTitleTokenShare is the share of date/time vocabulary tokens at
	// which a string is treated as a date rather than a title.
	DateTitleTokenShare = 0.7

	// MinSentenceLen and MaxSentenceLen bound a description sentence
	// that may stand in for a title: [MinSentenceLen, MaxSentenceLen).
	MinSentenceLen = 10
	MaxSentenceLen = 200
)

// dateTitlePatterns reject strings that start like a date or a time.
var dateTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:(?:mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)[a-z]*\.?,?\s+)?` + monthPattern + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`),
	regexp.MustCompile(`(?i)^(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+\d{1,2}[/.-]\d{1,2}`),
	regexp.MustCompile(`(?i)^(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\.?,?$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)^\d{1,2}(?::\d{2})?\s*(?:[ap]\.?m\.?)(?:\s*-\s*\d{1,2}(?::\d{2})?\s*(?:[ap]\.?m\.?)?)?$`),
	regexp.MustCompile(`^\d{1,2}:\d{2}\b`),
	regexp.MustCompile(`(?i)^(?:time\s+)?(?:tba|tbd)$`),
}

var dateTimeVocabulary = map[string]bool{
	"am": true, "pm": true, "a.m": true, "p.m": true, "noon": true, "midnight": true,
	"at": true, "to": true, "from": true, "until": true, "and": true, "of": true,
	"today": true, "tomorrow": true, "tonight": true, "week": true, "month": true,
	"year": true, "time": true, "date": true, "tbd": true, "tba": true,
	"est": true, "edt": true, "cst": true, "cdt": true, "pst": true, "pdt": true,
	"et": true, "pt": true, "ct": true, "utc": true, "gmt": true,
}

var (
	ordinalRE = regexp.MustCompile(`^\d+(?:st|nd|rd|th)?$`)
	clockRE   = regexp.MustCompile(`(?i)^\d{1,2}(?:(?::\d{2})+(?:[ap]\.?m?\.?)?|[ap]\.?m?\.?)$`)
	numDateRE = regexp.MustCompile(`^\d{1,4}(?:[/.-]\d{1,4})+$`)
)

// IsDateTimeTitle reports whether s is a date or time masquerading as a
// title: it matches a known date/time shape, or at least
// DateTitleTokenShare of its tokens are date/time vocabulary.
func IsDateTimeTitle(s string) bool {
	s = event.CleanText(s)
	if s == "" {
		return false
	}
	for _, re := range dateTitlePatterns {
		if re.MatchString(s) {
			return true
		}
	}

	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '|' || r == '(' || r == ')' || r == '@' || r == '–' || r == '—'
	})
	if len(tokens) == 0 {
		return false
	}
	hits := 0
	for _, tok := range tokens {
		if isDateTimeToken(strings.Trim(tok, ".:;-")) || tok == "-" {
			hits++
		}
	}
	return float64(hits)/float64(len(tokens)) >= DateTitleTokenShare
}

func isDateTimeToken(tok string) bool {
	if tok == "" {
		return true
	}
	if dateTimeVocabulary[tok] {
		return true
	}
	if isMonthWord(tok) || isWeekdayWord(tok) {
		return true
	}
	return ordinalRE.MatchString(tok) || clockRE.MatchString(tok) || numDateRE.MatchString(tok)
}

func isMonthWord(tok string) bool {
	for _, full := range []string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"} {
		if tok == full || (len(tok) >= 3 && strings.HasPrefix(full, tok)) {
			return true
		}
	}
	return false
}

func isWeekdayWord(tok string) bool {
	for _, full := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		if tok == full || (len(tok) >= 3 && strings.HasPrefix(full, tok)) {
			return true
		}
	}
	return false
}

// DefaultTitleSelectors are probed in order after any origin-specific probes.
var DefaultTitleSelectors = []string{
	".event-title",
	".event_title",
	"[itemprop=name]",
	".summary",
	"h1",
	"h2",
	"h3",
	"h4",
	".title",
	"a[href]",
	"strong",
}

// descriptionSelectors locate description-like blocks used for the
// first-sentence probe.
var descriptionSelectors = []string{
	".description",
	".event-description",
	"[itemprop=description]",
	".summary-text",
	"p",
}

var sentenceEndRE = regexp.MustCompile(`[.!?](?:\s|$)`)

// TitleExtractor picks the best title from a markup fragment.
type TitleExtractor struct {
	Selectors []string
}

// NewTitleExtractor returns an extractor probing DefaultTitleSelectors.
func NewTitleExtractor() *TitleExtractor {
	return &TitleExtractor{Selectors: DefaultTitleSelectors}
}

// Extract probes sel for a title: originProbes first, then the generic
// selectors, then the first sentence of a description block, then the first
// meaningful text line. Every probe result must pass IsDateTimeTitle.
// Returns "" when nothing survives.
func (t *TitleExtractor) Extract(sel *goquery.Selection, originProbes ...string) string {
	if sel == nil {
		return ""
	}

	probes := make([]string, 0, len(originProbes)+len(t.Selectors))
	probes = append(probes, originProbes...)
	probes = append(probes, t.Selectors...)

	for _, selector := range probes {
		var found string
		sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if candidate := acceptTitle(s.Text()); candidate != "" {
				found = candidate
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	for _, selector := range descriptionSelectors {
		var found string
		sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if candidate := acceptTitle(firstSentence(s.Text())); candidate != "" {
				found = candidate
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	return FirstMeaningfulLine(BlockText(sel))
}

// ExtractFromFragment parses a markup fragment and runs Extract on it.
func (t *TitleExtractor) ExtractFromFragment(fragment string, originProbes ...string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return t.Extract(doc.Selection, originProbes...)
}

// FirstMeaningfulLine returns the first line of text that looks like a title.
func FirstMeaningfulLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if candidate := acceptTitle(line); candidate != "" && len(candidate) >= 4 {
			return candidate
		}
	}
	return ""
}

func acceptTitle(raw string) string {
	title := event.CleanText(raw)
	title = strings.Trim(title, " |:-–—")
	if title == "" || len(title) >= 300 {
		return ""
	}
	if IsDateTimeTitle(title) {
		return ""
	}
	return title
}

// firstSentence returns the first sentence of text if its length falls in
// [MinSentenceLen, MaxSentenceLen).
func firstSentence(text string) string {
	text = event.CleanText(text)
	if loc := sentenceEndRE.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	if len(text) < MinSentenceLen || len(text) >= MaxSentenceLen {
		return ""
	}
	return text
}
