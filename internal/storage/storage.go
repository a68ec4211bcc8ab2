package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

const snapshotFile = "events.json"

// snapshot is the on-disk layout of a FileStore.
type snapshot struct {
	UpdatedAt string                   `json:"updated_at"`
	Events    map[string]*event.Record `json:"events"`
}

// FileStore keeps all records in one JSON snapshot in a data directory.
// The snapshot is loaded once and rewritten atomically after every change.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	events  map[string]*event.Record
	byKey   map[string]string
	nowFunc func() time.Time
}

// NewFileStore opens (or creates) the snapshot in dataDir. A leading "~/"
// is expanded to the home directory.
func NewFileStore(dataDir string) (*FileStore, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &FileStore{
		path:    filepath.Join(dataDir, snapshotFile),
		events:  make(map[string]*event.Record),
		byKey:   make(map[string]string),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// ExpandHome expands a leading "~/" in path.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	for id, rec := range snap.Events {
		if rec == nil {
			continue
		}
		rec.ID = id
		s.events[id] = rec
		s.byKey[rec.Key().String()] = id
	}
	return nil
}

// save writes the snapshot to a temp file and renames it into place.
// Callers hold the write lock.
func (s *FileStore) save() error {
	snap := snapshot{
		UpdatedAt: s.nowFunc().Format(time.RFC3339),
		Events:    s.events,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".events-*.json")
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) FindByKey(_ context.Context, key event.Key) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byKey[key.String()]; ok {
		return id, nil
	}
	return "", ErrNotFound
}

func (s *FileStore) FindCandidates(_ context.Context, date, sourceURL string) ([]Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Candidate
	for id, rec := range s.events {
		if rec.Date == date && rec.SourceURL == sourceURL {
			out = append(out, Candidate{
				ID:              id,
				Title:           rec.Title,
				NormalizedTitle: rec.NormalizedTitle,
				URL:             rec.URL,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FileStore) Insert(_ context.Context, rec *event.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Key().String()
	if _, ok := s.byKey[key]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}
	stored := rec.Clone()
	if stored.ID == "" {
		stored.ID = event.NewID()
	}
	now := s.nowFunc()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}

	s.events[stored.ID] = stored
	s.byKey[key] = stored.ID
	if err := s.save(); err != nil {
		delete(s.events, stored.ID)
		delete(s.byKey, key)
		return "", err
	}
	return stored.ID, nil
}

func (s *FileStore) Update(_ context.Context, rec *event.Record, fields []event.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.events[rec.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	updated := current.Clone()
	event.CopyFields(updated, rec, fields)
	updated.UpdatedAt = rec.UpdatedAt
	if updated.UpdatedAt.IsZero() {
		updated.UpdatedAt = s.nowFunc()
	}

	oldKey, newKey := current.Key().String(), updated.Key().String()
	if oldKey != newKey {
		if other, taken := s.byKey[newKey]; taken && other != rec.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, newKey)
		}
	}

	s.events[rec.ID] = updated
	delete(s.byKey, oldKey)
	s.byKey[newKey] = rec.ID
	if err := s.save(); err != nil {
		s.events[rec.ID] = current
		delete(s.byKey, newKey)
		s.byKey[oldKey] = rec.ID
		return err
	}
	return nil
}

func (s *FileStore) Exists(ctx context.Context, rec *event.Record) (bool, error) {
	_, err := s.FindByKey(ctx, rec.Key())
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *FileStore) Get(_ context.Context, id string) (*event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (s *FileStore) List(_ context.Context, filter ListFilter) ([]*event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*event.Record, 0, len(s.events))
	for _, rec := range s.events {
		if filter.matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	SortRecords(out)
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// SortRecords orders records by date, then start time, then title.
func SortRecords(recs []*event.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		ta, tb := event.ClockMinutes(a.Time), event.ClockMinutes(b.Time)
		if ta != tb {
			return ta < tb
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
}
