package event

import (
	"reflect"
	"testing"
)

func TestDetectChanges(t *testing.T) {
	base := &Record{
		Title:       "Protein Folding",
		Description: "A short talk.",
		Time:        TimeTBD,
		Location:    "Room 101",
		URL:         "https://bio.example.edu/events/1",
		Categories:  []string{"biology"},
	}

	t.Run("no changes after whitespace normalization", func(t *testing.T) {
		cur := base.Clone()
		cur.Description = "  A short   talk. "
		cur.URL = "https://bio.example.edu/events/1/"
		if changes := DetectChanges(base, cur); len(changes) != 0 {
			t.Errorf("DetectChanges() = %+v, want none", changes)
		}
	})

	t.Run("detects description and time", func(t *testing.T) {
		cur := base.Clone()
		cur.Description = "A much longer description of the protein folding talk."
		cur.Time = "4:00 PM"

		changes := DetectChanges(base, cur)
		got := ChangedFields(changes)
		want := []Field{FieldDescription, FieldTime}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ChangedFields() = %v, want %v", got, want)
		}
		if changes[1].OldValue != TimeTBD || changes[1].NewValue != "4:00 PM" {
			t.Errorf("time change = %+v", changes[1])
		}
	})

	t.Run("category order ignored", func(t *testing.T) {
		a := base.Clone()
		a.Categories = []string{"biology", "computer-science"}
		b := base.Clone()
		b.Categories = []string{"computer-science", "biology"}
		if changes := DetectChanges(a, b); len(changes) != 0 {
			t.Errorf("DetectChanges() = %+v, want none", changes)
		}
	})

	t.Run("nil previous", func(t *testing.T) {
		if changes := DetectChanges(nil, base); changes != nil {
			t.Errorf("DetectChanges(nil, rec) = %+v, want nil", changes)
		}
	})
}

func TestCopyFields(t *testing.T) {
	dst := &Record{Title: "Old", Description: "old", Location: "Room 1"}
	src := &Record{Title: "New Title", Description: "new", Location: "Room 2", IsVirtual: true}

	CopyFields(dst, src, []Field{FieldDescription, FieldIsVirtual})

	if dst.Description != "new" || !dst.IsVirtual {
		t.Errorf("copied fields not applied: %+v", dst)
	}
	if dst.Title != "Old" || dst.Location != "Room 1" {
		t.Errorf("unlisted fields were copied: %+v", dst)
	}
}
