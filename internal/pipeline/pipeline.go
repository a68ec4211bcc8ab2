// Package pipeline runs one scrape of every configured source: fetch,
// extract, enrich, categorize, deduplicate and persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/seminar-cal/internal/categorize"
	"github.com/pfrederiksen/seminar-cal/internal/config"
	"github.com/pfrederiksen/seminar-cal/internal/dedup"
	"github.com/pfrederiksen/seminar-cal/internal/enrich"
	"github.com/pfrederiksen/seminar-cal/internal/event"
	"github.com/pfrederiksen/seminar-cal/internal/extract"
	"github.com/pfrederiksen/seminar-cal/internal/fetch"
	"github.com/pfrederiksen/seminar-cal/internal/logger"
	"github.com/pfrederiksen/seminar-cal/internal/source"
	"github.com/pfrederiksen/seminar-cal/internal/storage"
)

// Stats summarizes one run.
type Stats struct {
	Sources   int `json:"sources"`
	Attempted int `json:"attempted"`
	Skipped   int `json:"skipped"`
	Kept      int `json:"kept"`

	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`

	Duplicates int `json:"duplicates"`
	Enriched   int `json:"enriched"`

	SourceFailures map[source.FailureKind]int `json:"source_failures,omitempty"`
}

// Failed returns the number of sources that produced no candidates because
// of a failure.
func (s Stats) Failed() int {
	n := 0
	for _, c := range s.SourceFailures {
		n += c
	}
	return n
}

// Options configure a Pipeline.
type Options struct {
	// Now is the run clock; extracted dates are compared against its day.
	Now func() time.Time
	// PolitenessDelay is waited between consecutive source requests.
	PolitenessDelay time.Duration
	// Sleep waits between sources; defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error

	Fetcher     fetch.Fetcher
	Categorizer *categorize.Categorizer
	Registry    *source.Registry

	// Enrich keeps generic titles through extraction and backfills them
	// from detail pages.
	Enrich       bool
	RecentLimit  int
	SearchAPIKey string
}

// Pipeline wires the extraction components to a store.
type Pipeline struct {
	store storage.Store
	opts  Options
}

// New creates a Pipeline. Zero options get defaults.
func New(store storage.Store, opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.New()
	}
	if opts.Categorizer == nil {
		opts.Categorizer = categorize.Default()
	}
	if opts.Registry == nil {
		opts.Registry = source.DefaultRegistry()
	}
	return &Pipeline{store: store, opts: opts}
}

// NewFromConfig builds a Pipeline from application configuration.
func NewFromConfig(store storage.Store, cfg *config.Config) (*Pipeline, error) {
	cat := categorize.Default()
	if len(cfg.Categories) > 0 {
		var err error
		if cat, err = categorize.New(cfg.Categories); err != nil {
			return nil, fmt.Errorf("building categorizer: %w", err)
		}
	}
	fetcher := fetch.New(
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithRetry(cfg.Retries, time.Second),
	)
	return New(store, Options{
		PolitenessDelay: cfg.PolitenessDelay,
		Fetcher:         fetcher,
		Categorizer:     cat,
		Enrich:          cfg.Enrich,
		RecentLimit:     cfg.RecentLimit,
		SearchAPIKey:    cfg.SearchAPIKey,
	}), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// run holds the per-invocation state: the clock reading, a fresh page
// cache and the in-run similarity set.
type run struct {
	*Pipeline
	now      time.Time
	builder  *extract.Orchestrator
	enricher *enrich.Enricher
	pages    *enrich.PageCache
	recent   *dedup.RecentSet
	engine   *dedup.Engine
	stats    Stats
}

// Run processes sources strictly in sequence. A failing source is logged,
// counted in Stats.SourceFailures and skipped. A store error aborts the run
// and is returned together with the statistics gathered so far.
func (p *Pipeline) Run(ctx context.Context, sources []config.Source) (Stats, error) {
	start := time.Now()
	now := p.opts.Now()
	r := &run{
		Pipeline: p,
		now:      now,
		builder: extract.NewOrchestrator(extract.Options{
			RunDate:           now,
			AllowGenericTitle: p.opts.Enrich,
		}),
		recent: dedup.NewRecentSet(p.opts.RecentLimit),
		engine: dedup.NewEngine(p.store, p.opts.Now),
		pages:  enrich.NewPageCache(),
		stats:  Stats{SourceFailures: make(map[source.FailureKind]int)},
	}
	if p.opts.Enrich {
		r.enricher = enrich.New(p.opts.Fetcher, r.pages)
	}

	logger.Info("Run started", logger.Fields{"sources": len(sources)})
	for i, src := range sources {
		if i > 0 {
			if err := p.opts.Sleep(ctx, p.opts.PolitenessDelay); err != nil {
				return r.stats, err
			}
		}
		if err := r.source(ctx, src); err != nil {
			logger.Error("Run aborted", logger.Fields{"source_url": src.URL}, err)
			return r.stats, err
		}
	}

	logger.RecordTiming("pipeline.run", time.Since(start))
	logger.IncrCounter("pipeline.runs")
	logger.Info("Run finished", logger.Fields{
		"attempted": r.stats.Attempted,
		"skipped":   r.stats.Skipped,
		"kept":      r.stats.Kept,
		"inserted":  r.stats.Inserted,
		"updated":   r.stats.Updated,
		"failed":    r.stats.Failed(),
		"pages":     r.pages.Size(),
		"page_hits": r.pages.Hits(),
	})
	return r.stats, nil
}

func (r *run) source(ctx context.Context, src config.Source) error {
	r.stats.Sources++
	fields := logger.Fields{"source": src.Name, "source_url": src.URL, "origin": string(src.Kind)}

	candidates, err := r.candidates(ctx, src)
	if err != nil {
		kind := source.KindOf(err)
		r.stats.SourceFailures[kind]++
		logger.IncrCounter("sources.failed." + string(kind))
		logger.Default().WarnErr("Source failed", fields, err)
		return nil
	}
	logger.Debug("Source extracted", logger.Fields{"source_url": src.URL, "candidates": len(candidates)})

	for _, c := range candidates {
		if err := r.candidate(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) candidates(ctx context.Context, src config.Source) ([]event.Candidate, error) {
	adapter, err := source.New(src.Kind, source.Options{Keywords: src.Keywords, Registry: r.opts.Registry})
	if err != nil {
		return nil, source.NewFailure(source.FailureParse, src.URL, err)
	}

	requestURL := src.URL
	if src.Kind == source.KindSearch {
		if requestURL, err = source.SearchRequestURL(src.URL, src.Query, r.opts.SearchAPIKey); err != nil {
			return nil, source.NewFailure(source.FailureParse, src.URL, err)
		}
	}

	fetchStart := time.Now()
	body, err := r.opts.Fetcher.Fetch(ctx, requestURL)
	logger.RecordTiming("source.fetch", time.Since(fetchStart))
	if err != nil {
		kind := source.FailureNetwork
		if errors.Is(err, fetch.ErrBlocked) {
			kind = source.FailureBlocked
		}
		return nil, source.NewFailure(kind, src.URL, err)
	}

	return source.SafeExtract(adapter, body, src.URL)
}

// candidate builds, enriches, categorizes and persists one candidate.
// Only store errors are returned.
func (r *run) candidate(ctx context.Context, c event.Candidate) error {
	r.stats.Attempted++
	logger.IncrCounter("candidates.attempted")

	rec, err := r.builder.Build(c)
	if err != nil {
		r.skip("Candidate dropped", c, err)
		return nil
	}

	if r.enricher != nil {
		enriched := r.enricher.EnrichIfNeeded(ctx, rec)
		if len(event.DetectChanges(rec, enriched)) > 0 {
			r.stats.Enriched++
		}
		rec = enriched
	}
	if event.IsGenericTitle(rec.Title) {
		r.skip("Candidate dropped", c, fmt.Errorf("%w: %q", extract.ErrGenericTitle, rec.Title))
		return nil
	}
	if err := rec.Validate(); err != nil {
		r.skip("Candidate dropped", c, err)
		return nil
	}

	rec.SetCategories(r.opts.Categorizer.Categorize(rec.Title, rec.Description))

	if r.recent.IsDuplicate(rec) {
		r.stats.Skipped++
		r.stats.Duplicates++
		logger.IncrCounter("candidates.duplicate")
		logger.Debug("Near-duplicate skipped", logger.Fields{"title": rec.Title, "source_url": c.SourceURL})
		return nil
	}
	r.recent.Add(rec)

	res, err := r.engine.ResolveAndPersist(ctx, rec)
	if err != nil {
		return fmt.Errorf("persisting %q: %w", rec.Title, err)
	}

	r.stats.Kept++
	logger.IncrCounter("candidates.kept")
	switch res.Outcome {
	case dedup.Inserted:
		r.stats.Inserted++
	case dedup.Updated:
		r.stats.Updated++
		logger.Debug("Event updated", logger.Fields{"id": res.ID, "changes": len(res.Changes)})
	case dedup.Unchanged:
		r.stats.Unchanged++
	}
	return nil
}

func (r *run) skip(msg string, c event.Candidate, err error) {
	r.stats.Skipped++
	if extract.IsMissingField(err) {
		logger.IncrCounter("candidates.missing_field")
	} else {
		logger.IncrCounter("candidates.invalid")
	}
	logger.Debug(msg, logger.Fields{
		"source_url": c.SourceURL,
		"origin":     string(c.Origin),
		"reason":     err.Error(),
	})
}

// Backfill enriches stored upcoming records that still need it and writes
// back only the fields that changed. It returns the number of records
// updated. Records whose enriched key collides with another row are skipped.
func (p *Pipeline) Backfill(ctx context.Context) (int, error) {
	now := p.opts.Now()
	recs, err := p.store.List(ctx, storage.ListFilter{From: event.FormatDate(now)})
	if err != nil {
		return 0, fmt.Errorf("listing events: %w", err)
	}

	enricher := enrich.New(p.opts.Fetcher, enrich.NewPageCache())
	updated := 0
	for _, rec := range recs {
		if !enrich.NeedsEnrichment(rec) {
			continue
		}
		enriched := enricher.EnrichIfNeeded(ctx, rec)
		changes := event.DetectChanges(rec, enriched)
		if len(changes) == 0 {
			continue
		}
		enriched.SetCategories(p.opts.Categorizer.Categorize(enriched.Title, enriched.Description))
		changes = event.DetectChanges(rec, enriched)
		enriched.UpdatedAt = now

		if err := p.store.Update(ctx, enriched, event.ChangedFields(changes)); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				logger.Default().WarnErr("Backfill skipped", logger.Fields{"id": rec.ID}, err)
				continue
			}
			return updated, fmt.Errorf("updating %s: %w", rec.ID, err)
		}
		updated++
	}
	logger.Info("Backfill finished", logger.Fields{"checked": len(recs), "updated": updated})
	return updated, nil
}
