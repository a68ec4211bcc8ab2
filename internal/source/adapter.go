package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// Kind names an adapter family as written in configuration.
type Kind string

const (
	KindFeed   Kind = "feed"
	KindHTML   Kind = "html"
	KindJSONLD Kind = "jsonld"
	KindSearch Kind = "search"
)

// FailureKind classifies why a source produced no candidates.
type FailureKind string

const (
	FailureParse   FailureKind = "parse"
	FailureNetwork FailureKind = "network"
	FailureBlocked FailureKind = "blocked"
)

var (
	ErrMalformed = errors.New("malformed content")
	ErrNetwork   = errors.New("network failure")
	ErrBlocked   = errors.New("source blocked")
)

// Failure is reported by adapters and the pipeline when a source yields
// nothing. It matches ErrMalformed, ErrNetwork or ErrBlocked with errors.Is.
type Failure struct {
	Kind   FailureKind
	Source string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s failure for %s", f.Kind, f.Source)
	}
	return fmt.Sprintf("%s failure for %s: %v", f.Kind, f.Source, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return f.Kind == FailureParse
	case ErrNetwork:
		return f.Kind == FailureNetwork
	case ErrBlocked:
		return f.Kind == FailureBlocked
	}
	return false
}

// NewFailure wraps err as a failure of the given kind.
func NewFailure(kind FailureKind, sourceURL string, err error) *Failure {
	return &Failure{Kind: kind, Source: sourceURL, Err: err}
}

// KindOf returns the failure kind carried by err, or FailureParse when err
// is not a Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureParse
}

// Adapter turns origin-specific content into uniform candidates.
//
// Extract must not panic on malformed input: it returns an empty list and
// a *Failure describing the problem.
type Adapter interface {
	Name() string
	Extract(content []byte, sourceURL string) ([]event.Candidate, error)
}

// SafeExtract runs a.Extract and converts a panic into a parse failure.
func SafeExtract(a Adapter, content []byte, sourceURL string) (candidates []event.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
			err = NewFailure(FailureParse, sourceURL, fmt.Errorf("%s adapter panic: %v", a.Name(), r))
		}
	}()
	return a.Extract(content, sourceURL)
}

// Options configure adapter construction.
type Options struct {
	// Keywords score search hits; empty keeps every hit.
	Keywords []string
	// Registry selects structured-HTML strategies; nil uses DefaultRegistry.
	Registry *Registry
}

// New returns the adapter for kind.
func New(kind Kind, opts Options) (Adapter, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindFeed:
		return NewFeedAdapter(), nil
	case KindHTML, "":
		reg := opts.Registry
		if reg == nil {
			reg = DefaultRegistry()
		}
		return NewHTMLAdapter(reg), nil
	case KindJSONLD:
		return NewJSONLDAdapter(), nil
	case KindSearch:
		return NewSearchAdapter(opts.Keywords), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", kind)
}

func dedupeCandidates(in []event.Candidate) []event.Candidate {
	seen := make(map[string]bool, len(in))
	out := make([]event.Candidate, 0, len(in))
	for _, c := range in {
		key := c.CandidateURL + "|" + event.CleanText(c.TitleText) + "|" + c.DateText
		if c.CandidateURL == "" && c.TitleText == "" {
			key = c.Context
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
