package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/perk-events/internal/event"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Postgres stores events directly in a Postgres database through gorm.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres connects to dsn and migrates the events table.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&event.Event{}); err != nil {
		return nil, fmt.Errorf("migrating events table: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) UpsertEvents(ctx context.Context, rows []event.Event) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	batch := make([]event.Event, len(rows))
	for i, row := range rows {
		row.DateTime = row.DateTime.UTC()
		batch[i] = row
	}

	result := p.db.WithContext(ctx).Clauses(upsertClause()).Create(&batch)
	if result.Error != nil {
		return 0, fmt.Errorf("upserting %d events: %w", len(rows), result.Error)
	}
	return len(rows), nil
}

func (p *Postgres) EventsBetween(ctx context.Context, start, end time.Time) ([]event.Event, error) {
	var rows []event.Event
	err := p.db.WithContext(ctx).
		Where("date_time >= ? AND date_time < ?", start.UTC(), end.UTC()).
		Order("date_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	for i := range rows {
		rows[i].DateTime = rows[i].DateTime.UTC()
	}
	sortByTime(rows)
	return rows, nil
}

func (p *Postgres) Close(context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// upsertClause resolves conflicts on the identity triple by updating the
// optional columns.
func upsertClause() clause.OnConflict {
	cols := make([]clause.Column, len(ConflictColumns))
	for i, name := range ConflictColumns {
		cols[i] = clause.Column{Name: name}
	}
	return clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(UpdateColumns),
	}
}
