package source

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// MinSearchScore is the keyword score a search hit needs to be kept.
const MinSearchScore = 1

// SearchHit is one result object returned by a search API.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Results []SearchHit `json:"results"`
}

// SearchAdapter turns search API results into candidates, keeping hits that
// mention the configured keywords.
type SearchAdapter struct {
	keywords []string
}

// NewSearchAdapter creates a SearchAdapter. With no keywords every hit is kept.
func NewSearchAdapter(keywords []string) *SearchAdapter {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kw = append(kw, k)
		}
	}
	return &SearchAdapter{keywords: kw}
}

func (a *SearchAdapter) Name() string { return string(KindSearch) }

// Extract decodes either {"results": [...]} or a bare array of hits.
func (a *SearchAdapter) Extract(content []byte, sourceURL string) ([]event.Candidate, error) {
	hits, err := decodeHits(content)
	if err != nil {
		return nil, NewFailure(FailureParse, sourceURL, err)
	}

	candidates := make([]event.Candidate, 0, len(hits))
	for _, hit := range hits {
		if strings.TrimSpace(hit.Title) == "" && strings.TrimSpace(hit.Content) == "" {
			continue
		}
		if len(a.keywords) > 0 && a.Score(hit) < MinSearchScore {
			continue
		}
		candidates = append(candidates, event.Candidate{
			TitleText:    hit.Title,
			Context:      strings.Join(nonEmpty(hit.Title, hit.Content), "\n"),
			CandidateURL: hit.URL,
			SourceURL:    sourceURL,
			Origin:       event.OriginSearch,
			Description:  hit.Content,
		})
	}
	return dedupeCandidates(candidates), nil
}

// Score counts keyword mentions: two points for each keyword in the title and
// one for each keyword in the content.
func (a *SearchAdapter) Score(hit SearchHit) int {
	title := strings.ToLower(hit.Title)
	content := strings.ToLower(hit.Content)
	score := 0
	for _, k := range a.keywords {
		if strings.Contains(title, k) {
			score += 2
		}
		if strings.Contains(content, k) {
			score++
		}
	}
	return score
}

func decodeHits(content []byte) ([]SearchHit, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var hits []SearchHit
		if err := json.Unmarshal(trimmed, &hits); err != nil {
			return nil, err
		}
		return hits, nil
	}
	var resp searchResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchRequestURL adds the query and API key parameters to a search
// endpoint.
func SearchRequestURL(endpoint, query, apiKey string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if query != "" {
		q.Set("q", query)
	}
	if apiKey != "" {
		q.Set("api_key", apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
