package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fias-importer/internal/address"
	"github.com/sells-group/fias-importer/internal/model"
)

// Saver persists address-bearing records, keeping their cached address
// strings in step with the address reference.
type Saver struct {
	store Store
	now   func() time.Time
}

// NewSaver creates a Saver over st.
func NewSaver(st Store) *Saver {
	return &Saver{store: st, now: time.Now}
}

// Save inserts a new record or updates an existing one.
//
// New records always get their address strings computed. For existing
// records the persisted version is read first: the strings are recomputed
// only when the address reference changed, otherwise the persisted strings
// are kept. Errors reading the persisted version are returned as-is.
func (s *Saver) Save(ctx context.Context, rec *model.Record) error {
	if rec.IsNew() {
		info, err := s.compute(ctx, nil, rec.AddressGUID)
		if err != nil {
			return err
		}
		id := uuid.New()
		rec.ID = &id
		rec.Address = *info
		rec.UpdatedAt = s.now().UTC()
		if err := s.store.InsertRecord(ctx, rec); err != nil {
			rec.ID = nil
			return err
		}
		return nil
	}

	prev, err := s.store.GetRecord(ctx, *rec.ID)
	if err != nil {
		return err
	}

	if prev.AddressGUID == rec.AddressGUID {
		rec.Address = prev.Address
	} else {
		info, err := s.compute(ctx, &prev.AddressGUID, rec.AddressGUID)
		if err != nil {
			return err
		}
		rec.Address = *info
	}

	rec.UpdatedAt = s.now().UTC()
	return s.store.UpdateRecord(ctx, rec)
}

func (s *Saver) compute(ctx context.Context, old *uuid.UUID, guid uuid.UUID) (*model.AddressInfo, error) {
	leaf, err := s.store.AddrObj(ctx, guid)
	if errors.Is(err, address.ErrNotFound) {
		return nil, eris.Wrapf(err, "store: address object %s", guid)
	}
	if err != nil {
		return nil, err
	}
	return address.Refresh(ctx, s.store, old, leaf)
}
