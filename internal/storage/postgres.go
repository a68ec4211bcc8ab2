package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pfrederiksen/seminar-cal/internal/event"
)

// eventRow is the events table. The unique index enforces one row per
// identity key.
type eventRow struct {
	ID                   string `gorm:"type:uuid;primaryKey"`
	Title                string `gorm:"not null"`
	NormalizedTitle      string `gorm:"not null;uniqueIndex:idx_events_key,priority:1"`
	Date                 string `gorm:"type:varchar(10);not null;uniqueIndex:idx_events_key,priority:2;index:idx_events_date_source,priority:1"`
	Time                 string `gorm:"type:varchar(16);not null"`
	SourceURL            string `gorm:"not null;uniqueIndex:idx_events_key,priority:3;index:idx_events_date_source,priority:2"`
	Description          string
	Location             string
	URL                  string
	IsVirtual            bool
	RequiresRegistration bool
	Categories           datatypes.JSON
	Host                 string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (eventRow) TableName() string { return "events" }

// fieldColumns maps mutable fields to the columns that store them.
var fieldColumns = map[event.Field][]string{
	event.FieldTitle:                {"title", "normalized_title"},
	event.FieldDescription:          {"description"},
	event.FieldTime:                 {"time"},
	event.FieldLocation:             {"location"},
	event.FieldURL:                  {"url"},
	event.FieldIsVirtual:            {"is_virtual"},
	event.FieldRequiresRegistration: {"requires_registration"},
	event.FieldCategories:           {"categories"},
	event.FieldHost:                 {"host"},
}

// PostgresStore keeps records in a PostgreSQL events table through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to dsn and migrates the events table.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return NewPostgresStoreWithDB(db)
}

// NewPostgresStoreWithDB wraps an open gorm connection and migrates the
// events table.
func NewPostgresStoreWithDB(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&eventRow{}); err != nil {
		return nil, fmt.Errorf("migrating events table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) FindByKey(ctx context.Context, key event.Key) (string, error) {
	var row eventRow
	err := s.db.WithContext(ctx).
		Select("id").
		Where("normalized_title = ? AND date = ? AND source_url = ?", key.NormalizedTitle, key.Date, key.SourceURL).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("finding event by key: %w", err)
	}
	return row.ID, nil
}

func (s *PostgresStore) FindCandidates(ctx context.Context, date, sourceURL string) ([]Candidate, error) {
	var rows []eventRow
	err := s.db.WithContext(ctx).
		Select("id", "title", "normalized_title", "url").
		Where("date = ? AND source_url = ?", date, sourceURL).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("finding candidates: %w", err)
	}
	out := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, Candidate{ID: r.ID, Title: r.Title, NormalizedTitle: r.NormalizedTitle, URL: r.URL})
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec *event.Record) (string, error) {
	row, err := toRow(rec)
	if err != nil {
		return "", err
	}
	if row.ID == "" {
		row.ID = event.NewID()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", writeError("inserting event", rec, err)
	}
	return row.ID, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec *event.Record, fields []event.Field) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	cols := updateColumns(fields)
	res := s.db.WithContext(ctx).Model(&eventRow{ID: rec.ID}).Select(cols).Updates(&row)
	if res.Error != nil {
		return writeError("updating event "+rec.ID, rec, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return nil
}

// writeError maps a unique violation on the event key to ErrDuplicateKey and
// wraps anything else with op.
func writeError(op string, rec *event.Record, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "idx_events_key") {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, rec.Key())
	}
	return fmt.Errorf("%s: %w", op, err)
}

// updateColumns lists the columns to write for fields, always including
// updated_at.
func updateColumns(fields []event.Field) []string {
	cols := []string{"updated_at"}
	for _, f := range fields {
		cols = append(cols, fieldColumns[f]...)
	}
	return cols
}

func (s *PostgresStore) Exists(ctx context.Context, rec *event.Record) (bool, error) {
	_, err := s.FindByKey(ctx, rec.Key())
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*event.Record, error) {
	var row eventRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting event %s: %w", id, err)
	}
	return fromRow(row)
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*event.Record, error) {
	q := s.db.WithContext(ctx).Model(&eventRow{})
	if filter.From != "" {
		q = q.Where("date >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("date <= ?", filter.To)
	}
	if filter.Category != "" {
		q = q.Where("categories @> ?", datatypes.JSON(mustJSON([]string{filter.Category})))
	}

	var rows []eventRow
	if err := q.Order("date").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	out := make([]*event.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	SortRecords(out)
	return out, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(rec *event.Record) (eventRow, error) {
	cats, err := json.Marshal(nonNil(rec.Categories))
	if err != nil {
		return eventRow{}, fmt.Errorf("encoding categories: %w", err)
	}
	return eventRow{
		ID:                   rec.ID,
		Title:                rec.Title,
		NormalizedTitle:      rec.NormalizedTitle,
		Date:                 rec.Date,
		Time:                 rec.Time,
		SourceURL:            rec.SourceURL,
		Description:          rec.Description,
		Location:             rec.Location,
		URL:                  rec.URL,
		IsVirtual:            rec.IsVirtual,
		RequiresRegistration: rec.RequiresRegistration,
		Categories:           datatypes.JSON(cats),
		Host:                 rec.Host,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}, nil
}

func fromRow(row eventRow) (*event.Record, error) {
	var cats []string
	if len(row.Categories) > 0 {
		if err := json.Unmarshal(row.Categories, &cats); err != nil {
			return nil, fmt.Errorf("decoding categories of %s: %w", row.ID, err)
		}
	}
	rec := &event.Record{
		ID:                   row.ID,
		Title:                row.Title,
		NormalizedTitle:      row.NormalizedTitle,
		Date:                 row.Date,
		Time:                 row.Time,
		SourceURL:            row.SourceURL,
		Description:          row.Description,
		Location:             row.Location,
		URL:                  row.URL,
		IsVirtual:            row.IsVirtual,
		RequiresRegistration: row.RequiresRegistration,
		Host:                 row.Host,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	rec.SetCategories(cats)
	return rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}
