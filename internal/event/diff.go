package event

import (
	"strconv"
	"strings"
)

// Field names a mutable column of a stored record.
type Field string

const (
	FieldTitle                Field = "title"
	FieldDescription          Field = "description"
	FieldTime                 Field = "time"
	FieldLocation             Field = "location"
	FieldURL                  Field = "url"
	FieldIsVirtual            Field = "is_virtual"
	FieldRequiresRegistration Field = "requires_registration"
	FieldCategories           Field = "categories"
	FieldHost                 Field = "host"
)

// MutableFields lists the fields a re-scrape may rewrite, in comparison order.
var MutableFields = []Field{
	FieldTitle,
	FieldDescription,
	FieldTime,
	FieldLocation,
	FieldURL,
	FieldIsVirtual,
	FieldRequiresRegistration,
	FieldCategories,
	FieldHost,
}

// Change is one field that differs between a stored and an updated record.
type Change struct {
	Field    Field  `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// DetectChanges compares the mutable fields of two records after whitespace
// normalization and returns the ones that differ. A nil previous record
// yields no changes.
func DetectChanges(previous, current *Record) []Change {
	if previous == nil || current == nil {
		return nil
	}

	var changes []Change
	for _, f := range MutableFields {
		oldValue := fieldValue(previous, f)
		newValue := fieldValue(current, f)
		if oldValue != newValue {
			changes = append(changes, Change{Field: f, OldValue: oldValue, NewValue: newValue})
		}
	}
	return changes
}

// ChangedFields returns just the field names of changes.
func ChangedFields(changes []Change) []Field {
	fields := make([]Field, 0, len(changes))
	for _, c := range changes {
		fields = append(fields, c.Field)
	}
	return fields
}

func fieldValue(r *Record, f Field) string {
	switch f {
	case FieldTitle:
		return CleanText(r.Title)
	case FieldDescription:
		return CleanText(r.Description)
	case FieldTime:
		return CleanText(r.Time)
	case FieldLocation:
		return CleanText(r.Location)
	case FieldURL:
		return strings.TrimSuffix(strings.TrimSpace(r.URL), "/")
	case FieldIsVirtual:
		return strconv.FormatBool(r.IsVirtual)
	case FieldRequiresRegistration:
		return strconv.FormatBool(r.RequiresRegistration)
	case FieldCategories:
		c := r.Clone()
		c.SetCategories(c.Categories)
		return strings.Join(c.Categories, ",")
	case FieldHost:
		return CleanText(r.Host)
	}
	return ""
}

// CopyFields copies the named fields from src into dst.
func CopyFields(dst, src *Record, fields []Field) {
	for _, f := range fields {
		switch f {
		case FieldTitle:
			dst.SetTitle(src.Title)
		case FieldDescription:
			dst.Description = src.Description
		case FieldTime:
			dst.Time = src.Time
		case FieldLocation:
			dst.Location = src.Location
		case FieldURL:
			dst.URL = src.URL
		case FieldIsVirtual:
			dst.IsVirtual = src.IsVirtual
		case FieldRequiresRegistration:
			dst.RequiresRegistration = src.RequiresRegistration
		case FieldCategories:
			dst.SetCategories(src.Categories)
		case FieldHost:
			dst.Host = src.Host
		}
	}
}
