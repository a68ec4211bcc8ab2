package extract

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

var (
	// ErrNoTitle means no probe produced a usable title.
	ErrNoTitle = errors.New("no usable title")
	// ErrGenericTitle means the only title found is a placeholder.
	ErrGenericTitle = errors.New("generic title")
	// ErrNoDate means no acceptable (non-past) date was found.
	ErrNoDate = errors.New("no usable date")
)

// IsMissingField reports whether err means a required field was unrecoverable.
// Such candidates are dropped and counted, never raised.
func IsMissingField(err error) bool {
	return errors.Is(err, ErrNoTitle) || errors.Is(err, ErrGenericTitle) || errors.Is(err, ErrNoDate)
}

const maxDescriptionLen = 1000

// Options control record building.
type Options struct {
	// RunDate is the day extracted dates are compared against.
	RunDate time.Time
	// AllowGenericTitle keeps placeholder titles so a later enrichment
	// step can replace them.
	AllowGenericTitle bool
}

// Orchestrator turns raw candidates into validated event records.
type Orchestrator struct {
	titles    *TitleExtractor
	sanitizer *bluemonday.Policy
	opts      Options
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.RunDate.IsZero() {
		opts.RunDate = time.Now().UTC()
	}
	return &Orchestrator{
		titles:    NewTitleExtractor(),
		sanitizer: bluemonday.UGCPolicy(),
		opts:      opts,
	}
}

// Build extracts every field of c and returns a validated record. The error
// is ErrNoTitle, ErrGenericTitle or ErrNoDate when a required field cannot
// be recovered, or wraps event.ErrInvalidRecord.
func (o *Orchestrator) Build(c event.Candidate) (*event.Record, error) {
	contextText := TextOf(c.Context)

	title := acceptTitle(o.plainText(c.TitleText))
	if title == "" && LooksLikeMarkup(c.Context) {
		title = o.titles.ExtractFromFragment(c.Context, c.TitleProbes...)
	}
	if title == "" {
		title = FirstMeaningfulLine(contextText)
	}
	if title == "" {
		return nil, ErrNoTitle
	}
	if event.IsGenericTitle(title) && !o.opts.AllowGenericTitle {
		return nil, fmt.Errorf("%w: %q", ErrGenericTitle, title)
	}

	date, ok := o.findDate(c, title, contextText)
	if !ok {
		return nil, ErrNoDate
	}

	timeText := event.TimeTBD
	for _, text := range []string{c.DateText, contextText} {
		if t, ok := ExtractTime(text); ok {
			timeText = t
			break
		}
	}

	description := o.description(c, title, contextText)
	allText := title + "\n" + description + "\n" + contextText

	location := event.CleanText(c.Location)
	if location == "" {
		location = ExtractLocation(contextText)
	}
	virtual := c.Virtual || DetectVirtual(allText)
	if virtual && location == "" {
		location = VirtualLocation
	}

	return event.NewRecord(event.Record{
		Title:                title,
		Description:          description,
		Date:                 event.FormatDate(date),
		Time:                 timeText,
		Location:             location,
		URL:                  ResolveURL(c.SourceURL, c.CandidateURL),
		SourceURL:            c.SourceURL,
		IsVirtual:            virtual,
		RequiresRegistration: DetectRegistration(allText),
		Host:                 HostName(c.SourceURL),
	})
}

func (o *Orchestrator) findDate(c event.Candidate, title, contextText string) (time.Time, bool) {
	for _, text := range []string{c.DateText, contextText, title, c.Description} {
		if d, ok := ExtractDate(text, o.opts.RunDate); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func (o *Orchestrator) description(c event.Candidate, title, contextText string) string {
	desc := event.CleanText(o.plainText(c.Description))
	if desc == "" {
		lines := strings.Split(contextText, "\n")
		kept := make([]string, 0, len(lines))
		for _, line := range lines {
			if line == title || IsDateTimeTitle(line) {
				continue
			}
			kept = append(kept, line)
		}
		desc = event.CleanText(strings.Join(kept, " "))
	}
	if len(desc) > maxDescriptionLen {
		cut := strings.LastIndex(desc[:maxDescriptionLen], " ")
		if cut <= 0 {
			cut = maxDescriptionLen
			for cut > 0 && !utf8.RuneStart(desc[cut]) {
				cut--
			}
		}
		desc = desc[:cut] + "..."
	}
	if desc == "" {
		desc = event.DefaultDescription
	}
	return desc
}

// plainText sanitizes markup and renders it as text; plain input passes through.
func (o *Orchestrator) plainText(s string) string {
	if !LooksLikeMarkup(s) {
		return s
	}
	clean := o.sanitizer.Sanitize(s)
	if !LooksLikeMarkup(clean) {
		return html.UnescapeString(clean)
	}
	return TextOf(clean)
}

// ResolveURL resolves ref against base; an empty or unparseable ref
// yields base.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(strings.ToLower(ref), "javascript:") {
		return base
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return base
	}
	return b.ResolveReference(r).String()
}
