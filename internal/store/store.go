package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fias-importer/internal/address"
	"github.com/sells-group/fias-importer/internal/config"
	"github.com/sells-group/fias-importer/internal/model"
)

// ErrRecordNotFound is returned when no address-bearing record has the ID.
var ErrRecordNotFound = errors.New("store: record not found")

// Store persists address objects and address-bearing records.
type Store interface {
	// AddrObj returns address.ErrNotFound for unknown keys.
	address.Lookup
	PutAddrObj(ctx context.Context, obj *model.AddrObj) error

	GetRecord(ctx context.Context, id uuid.UUID) (*model.Record, error)
	InsertRecord(ctx context.Context, rec *model.Record) error
	UpdateRecord(ctx context.Context, rec *model.Record) error

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
