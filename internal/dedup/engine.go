package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/seminar-cal/internal/event"
	"github.com/pfrederiksen/seminar-cal/internal/storage"
)

// FuzzyPrefixLen is how much of a normalized title must appear in a stored
// title for the two to be fuzzy-match candidates.
const FuzzyPrefixLen = 20

// Outcome is what ResolveAndPersist did with a record.
type Outcome string

const (
	Inserted  Outcome = "inserted"
	Updated   Outcome = "updated"
	Unchanged Outcome = "unchanged"
)

// Result reports the stored id and what changed.
type Result struct {
	ID      string
	Outcome Outcome
	Changes []event.Change
}

// Engine decides whether a built record is new or an update of a stored one.
type Engine struct {
	store storage.Store
	now   func() time.Time
}

// NewEngine creates an Engine over store. now defaults to time.Now.
func NewEngine(store storage.Store, now func() time.Time) *Engine {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{store: store, now: now}
}

// ResolveAndPersist stores rec. An exact identity-key match is merged into
// the stored row; otherwise a stored row with the same date and source whose
// title contains the first FuzzyPrefixLen characters of rec's normalized
// title and whose URL is similar is merged into; otherwise rec is inserted.
// Store errors are wrapped and returned; they should abort the run.
func (e *Engine) ResolveAndPersist(ctx context.Context, rec *event.Record) (Result, error) {
	id, err := e.store.FindByKey(ctx, rec.Key())
	switch {
	case err == nil:
		return e.merge(ctx, id, rec, true)
	case !errors.Is(err, storage.ErrNotFound):
		return Result{}, fmt.Errorf("finding %s: %w", rec.Key(), err)
	}

	id, err = e.fuzzyMatch(ctx, rec)
	if err != nil {
		return Result{}, err
	}
	if id != "" {
		return e.merge(ctx, id, rec, false)
	}

	stored := rec.Clone()
	stored.ID = event.NewID()
	now := e.now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	id, err = e.store.Insert(ctx, stored)
	if err != nil {
		return Result{}, fmt.Errorf("inserting %s: %w", rec.Key(), err)
	}
	return Result{ID: id, Outcome: Inserted}, nil
}

// fuzzyMatch only considers records with a real normalized title; titles
// that fall back to their literal text (see event.TitleKey) match exactly or
// not at all.
func (e *Engine) fuzzyMatch(ctx context.Context, rec *event.Record) (string, error) {
	if event.Normalize(rec.Title) == "" {
		return "", nil
	}
	prefix := titlePrefix(rec.NormalizedTitle)
	if prefix == "" {
		return "", nil
	}
	cands, err := e.store.FindCandidates(ctx, rec.Date, rec.SourceURL)
	if err != nil {
		return "", fmt.Errorf("finding candidates for %s: %w", rec.Key(), err)
	}
	for _, c := range cands {
		if strings.Contains(c.NormalizedTitle, prefix) && URLSimilar(c.URL, rec.URL) {
			return c.ID, nil
		}
	}
	return "", nil
}

func titlePrefix(normalized string) string {
	r := []rune(normalized)
	if len(r) > FuzzyPrefixLen {
		r = r[:FuzzyPrefixLen]
	}
	return string(r)
}

func (e *Engine) merge(ctx context.Context, id string, rec *event.Record, exact bool) (Result, error) {
	existing, err := e.store.Get(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("loading %s: %w", id, err)
	}

	merged := Merge(existing, rec, exact)
	changes := event.DetectChanges(existing, merged)
	if len(changes) == 0 {
		return Result{ID: id, Outcome: Unchanged}, nil
	}

	merged.UpdatedAt = e.now()
	if err := e.store.Update(ctx, merged, event.ChangedFields(changes)); err != nil {
		return Result{}, fmt.Errorf("updating %s: %w", id, err)
	}
	return Result{ID: id, Outcome: Updated, Changes: changes}, nil
}
