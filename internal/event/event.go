package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TimeTBD is stored when no plausible start time could be extracted.
const TimeTBD = "Time TBD"

// DateLayout is the ISO calendar date format used for Record.Date.
const DateLayout = "2006-01-02"

// ErrInvalidRecord is returned when a record fails its invariant checks.
var ErrInvalidRecord = errors.New("invalid event record")

var validate = validator.New()

// Record is a canonical, deduplicated event
type Record struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title" validate:"required"`
	NormalizedTitle      string    `json:"normalized_title"`
	Description          string    `json:"description"`
	Date                 string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time                 string    `json:"time" validate:"required"`
	Location             string    `json:"location,omitempty"`
	URL                  string    `json:"url,omitempty" validate:"omitempty,url"`
	SourceURL            string    `json:"source_url" validate:"required,url"`
	IsVirtual            bool      `json:"is_virtual"`
	RequiresRegistration bool      `json:"requires_registration"`
	Categories           []string  `json:"categories,omitempty"`
	Host                 string    `json:"host,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Key is the identity of a record: at most one stored record exists per key.
type Key struct {
	NormalizedTitle string
	Date            string
	SourceURL       string
}

func (k Key) String() string {
	return k.NormalizedTitle + "|" + k.Date + "|" + k.SourceURL
}

// NewRecord copies fields, derives NormalizedTitle with TitleKey, fills
// defaults and checks invariants. The returned record has no ID until it is
// persisted.
func NewRecord(fields Record) (*Record, error) {
	rec := fields
	rec.Title = CleanText(rec.Title)
	rec.Description = strings.TrimSpace(rec.Description)
	rec.Location = CleanText(rec.Location)
	if rec.Time == "" {
		rec.Time = TimeTBD
	}
	rec.NormalizedTitle = TitleKey(rec.Title)
	rec.SetCategories(rec.Categories)

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Validate checks the record invariants.
func (r *Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if r.NormalizedTitle != TitleKey(r.Title) {
		return fmt.Errorf("%w: normalized title out of date", ErrInvalidRecord)
	}
	return nil
}

// Key returns the record's identity key.
func (r *Record) Key() Key {
	return Key{
		NormalizedTitle: r.NormalizedTitle,
		Date:            r.Date,
		SourceURL:       r.SourceURL,
	}
}

// SetTitle replaces the title and keeps NormalizedTitle in sync.
func (r *Record) SetTitle(title string) {
	r.Title = CleanText(title)
	r.NormalizedTitle = TitleKey(r.Title)
}

// SetCategories stores labels as a sorted set.
func (r *Record) SetCategories(labels []string) {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	if len(out) == 0 {
		out = nil
	}
	r.Categories = out
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	if r.Categories != nil {
		c.Categories = append([]string(nil), r.Categories...)
	}
	return &c
}

// NewID generates an identifier for a newly stored record.
func NewID() string {
	return uuid.NewString()
}

// CleanText trims s and collapses internal whitespace runs to single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
