package source

import (
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// FeedAdapter reads RSS, Atom and JSON feeds. Each item becomes one
// candidate; the item's publish date is not an event date and is ignored.
type FeedAdapter struct {
	parser *gofeed.Parser
}

// NewFeedAdapter creates a FeedAdapter.
func NewFeedAdapter() *FeedAdapter {
	return &FeedAdapter{parser: gofeed.NewParser()}
}

func (a *FeedAdapter) Name() string { return string(KindFeed) }

// Extract parses content as a feed.
func (a *FeedAdapter) Extract(content []byte, sourceURL string) ([]event.Candidate, error) {
	feed, err := a.parser.ParseString(string(content))
	if err != nil {
		return nil, NewFailure(FailureParse, sourceURL, err)
	}

	candidates := make([]event.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}

		c := event.Candidate{
			TitleText:    item.Title,
			Context:      strings.Join(nonEmpty(item.Title, item.Description, item.Content), "\n"),
			CandidateURL: item.Link,
			SourceURL:    sourceURL,
			Origin:       event.OriginFeed,
			Description:  desc,
		}
		if c.CandidateURL == "" && len(item.Links) > 0 {
			c.CandidateURL = item.Links[0]
		}

		// RSS event module: <ev:startdate>, <ev:location>.
		if start := extensionValue(item.Extensions, "ev", "startdate"); start != "" {
			c.DateText = NormalizeISODateTime(start)
		}
		c.Location = extensionValue(item.Extensions, "ev", "location")

		candidates = append(candidates, c)
	}
	return dedupeCandidates(candidates), nil
}

func extensionValue(exts ext.Extensions, prefix, name string) string {
	if exts == nil {
		return ""
	}
	values := exts[prefix][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
