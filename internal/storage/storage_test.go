package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

func newRecord(t *testing.T, title, date string) *event.Record {
	t.Helper()
	rec, err := event.NewRecord(event.Record{
		Title:       title,
		Description: "A talk about " + title,
		Date:        date,
		Time:        "4:00 PM",
		URL:         "https://cs.example.edu/events/1",
		SourceURL:   "https://cs.example.edu/events",
		Categories:  []string{"Computer Science"},
	})
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}
	return rec
}

func TestFileStore_InsertFindGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	rec := newRecord(t, "Deep Learning for Proteins", "2025-10-10")
	id, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id == "" {
		t.Fatal("Insert() returned empty id")
	}

	gotID, err := s.FindByKey(ctx, rec.Key())
	if err != nil || gotID != id {
		t.Errorf("FindByKey() = %q, %v; want %q", gotID, err, id)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != rec.Title || got.CreatedAt.IsZero() {
		t.Errorf("Get() = %+v", got)
	}

	exists, err := s.Exists(ctx, rec)
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v", exists, err)
	}

	if _, err := s.Insert(ctx, rec); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("second Insert() error = %v, want ErrDuplicateKey", err)
	}
}

func TestFileStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	if _, err := s.FindByKey(ctx, event.Key{NormalizedTitle: "x", Date: "2025-10-10", SourceURL: "y"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByKey() error = %v", err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v", err)
	}
	if err := s.Update(ctx, &event.Record{ID: "missing"}, []event.Field{event.FieldTime}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v", err)
	}
	exists, err := s.Exists(ctx, newRecord(t, "Nothing Stored", "2025-10-10"))
	if err != nil || exists {
		t.Errorf("Exists() = %v, %v", exists, err)
	}
}

func TestFileStore_UpdateOnlyListedFields(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	rec := newRecord(t, "Robust Statistics", "2025-10-12")
	id, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	change := rec.Clone()
	change.ID = id
	change.Description = "A much longer description of robust statistics for genomics."
	change.Location = "Room 5"
	if err := s.Update(ctx, change, []event.Field{event.FieldDescription}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := s.Get(ctx, id)
	if got.Description != change.Description {
		t.Errorf("Description = %q", got.Description)
	}
	if got.Location != "" {
		t.Errorf("Location = %q, unlisted field should be untouched", got.Location)
	}
}

func TestFileStore_UpdateTitleMovesKey(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	rec := newRecord(t, "Event", "2025-10-12")
	id, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	change := rec.Clone()
	change.ID = id
	change.SetTitle("Bayesian Optimization in Practice")
	if err := s.Update(ctx, change, []event.Field{event.FieldTitle}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := s.FindByKey(ctx, rec.Key()); !errors.Is(err, ErrNotFound) {
		t.Errorf("old key still resolves: %v", err)
	}
	if got, err := s.FindByKey(ctx, change.Key()); err != nil || got != id {
		t.Errorf("FindByKey(new) = %q, %v", got, err)
	}
}

func TestFileStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	rec := newRecord(t, "Quantum Error Correction", "2025-11-01")
	id, err := s.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "events.json")); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	gotID, err := reopened.FindByKey(ctx, rec.Key())
	if err != nil || gotID != id {
		t.Errorf("FindByKey() after reopen = %q, %v; want %q", gotID, err, id)
	}
}

func TestFileStore_CorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "events.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(dir); err == nil {
		t.Error("NewFileStore() with corrupt snapshot should fail")
	}
}

func TestFileStore_FindCandidatesAndList(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	a := newRecord(t, "Zebrafish Development", "2025-10-10")
	b := newRecord(t, "Algorithms for Assembly", "2025-10-10")
	b.Time = "10:00 AM"
	c := newRecord(t, "Category Theory", "2025-10-20")
	c.SetCategories(nil)
	for _, rec := range []*event.Record{a, b, c} {
		if _, err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	cands, err := s.FindCandidates(ctx, "2025-10-10", "https://cs.example.edu/events")
	if err != nil || len(cands) != 2 {
		t.Fatalf("FindCandidates() = %d, %v; want 2", len(cands), err)
	}
	if none, _ := s.FindCandidates(ctx, "2025-10-10", "https://other.example.edu"); len(none) != 0 {
		t.Errorf("FindCandidates(other source) = %d", len(none))
	}

	all, err := s.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var titles []string
	for _, r := range all {
		titles = append(titles, r.Title)
	}
	want := []string{"Algorithms for Assembly", "Zebrafish Development", "Category Theory"}
	if !reflect.DeepEqual(titles, want) {
		t.Errorf("List() order = %v, want %v", titles, want)
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{"from", ListFilter{From: "2025-10-11"}, 1},
		{"to", ListFilter{To: "2025-10-10"}, 2},
		{"category", ListFilter{Category: "Computer Science"}, 2},
		{"no match", ListFilter{Category: "Biology"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			if err != nil || len(got) != tt.want {
				t.Errorf("List(%+v) = %d, %v; want %d", tt.filter, len(got), err, tt.want)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandHome("~/.local/share/seminar-cal")
	if err != nil || got != filepath.Join(home, ".local/share/seminar-cal") {
		t.Errorf("ExpandHome() = %q, %v", got, err)
	}
	if got, _ := ExpandHome("/tmp/data"); got != "/tmp/data" {
		t.Errorf("ExpandHome(abs) = %q", got)
	}
}

func TestRowConversion(t *testing.T) {
	rec := newRecord(t, "Graph Neural Networks", "2025-10-16")
	rec.ID = "6f1c1b1e-0000-4000-8000-000000000001"
	rec.CreatedAt = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	rec.UpdatedAt = rec.CreatedAt

	row, err := toRow(rec)
	if err != nil {
		t.Fatalf("toRow() error = %v", err)
	}
	if string(row.Categories) != `["Computer Science"]` {
		t.Errorf("Categories = %s", row.Categories)
	}

	back, err := fromRow(row)
	if err != nil {
		t.Fatalf("fromRow() error = %v", err)
	}
	if !reflect.DeepEqual(back, rec) {
		t.Errorf("fromRow(toRow(rec)) = %+v, want %+v", back, rec)
	}

	rec.SetCategories(nil)
	row, _ = toRow(rec)
	if string(row.Categories) != `[]` {
		t.Errorf("empty Categories = %s", row.Categories)
	}
}

func TestUpdateColumns(t *testing.T) {
	got := updateColumns([]event.Field{event.FieldTitle, event.FieldTime})
	want := []string{"updated_at", "title", "normalized_title", "time"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("updateColumns() = %v, want %v", got, want)
	}
}

func TestWriteError(t *testing.T) {
	rec := newRecord(t, "Quantum Error Correction", "2025-10-10")
	rec.ID = "evt-1"

	tests := []struct {
		name    string
		op      string
		err     error
		wantDup bool
	}{
		{"update duplicate", "updating event evt-1", fmt.Errorf("commit: %w", gorm.ErrDuplicatedKey), true},
		{"insert duplicate", "inserting event", gorm.ErrDuplicatedKey, true},
		{"raw constraint name", "updating event evt-1", errors.New(`duplicate key value violates unique constraint "idx_events_key"`), true},
		{"other failure", "updating event evt-1", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writeError(tt.op, rec, tt.err)
			if got := errors.Is(err, ErrDuplicateKey); got != tt.wantDup {
				t.Fatalf("errors.Is(%v, ErrDuplicateKey) = %v, want %v", err, got, tt.wantDup)
			}
			if !tt.wantDup && !errors.Is(err, tt.err) {
				t.Errorf("error %v does not wrap %v", err, tt.err)
			}
			if !tt.wantDup && !strings.HasPrefix(err.Error(), tt.op) {
				t.Errorf("error %q missing op %q", err, tt.op)
			}
		})
	}
}
