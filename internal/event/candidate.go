package event

// OriginKind identifies the adapter family that produced a candidate.
type OriginKind string

const (
	OriginFeed   OriginKind = "feed"
	OriginHTML   OriginKind = "html"
	OriginJSONLD OriginKind = "jsonld"
	OriginSearch OriginKind = "search"
)

// Candidate is unvalidated adapter output believed to describe one event.
// It is transient and never persisted.
//
// TitleText, Context, CandidateURL, SourceURL and Origin are always set by
// adapters; the remaining fields are hints that structured origins (feeds,
// JSON-LD) can fill directly.
type Candidate struct {
	TitleText    string
	Context      string // markup fragment or plain text around the event
	CandidateURL string
	SourceURL    string
	Origin       OriginKind

	// TitleProbes are origin-specific selectors tried before the generic ones.
	TitleProbes []string

	DateText    string
	Description string
	Location    string
	Virtual     bool
}
