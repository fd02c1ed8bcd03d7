package storage

import (
	"context"

	"growth-scraper/models"
)

// RawStore persists unprocessed scraped records.
type RawStore interface {
	WriteRaw(records []models.RawRecord) error
	ReadRaw() ([]models.RawRecord, error)
}

// CleanStore persists the normalized table.
type CleanStore interface {
	WriteClean(table models.CleanTable) error
	ReadClean() (models.CleanTable, error)
}

// CleanMirror is an optional secondary sink for the clean table.
type CleanMirror interface {
	Write(ctx context.Context, table models.CleanTable) error
	Close() error
}
