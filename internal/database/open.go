package database

import (
	"context"
	"fmt"
	"time"

	"installment-tracker/internal/config"
	"installment-tracker/internal/models"
)

// Store is a record store that also keeps the processing watermark.
type Store interface {
	GetAll(ctx context.Context) ([]models.Record, error)
	Put(ctx context.Context, r models.Record) error
	Delete(ctx context.Context, id string) error
	GetWatermark(ctx context.Context) (time.Time, bool, error)
	SetWatermark(ctx context.Context, t time.Time) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Memory)(nil)
)

// Open connects to the backend selected by cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		return New(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoCollection)
	case config.BackendSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
