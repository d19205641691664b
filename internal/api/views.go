package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fias-importer/internal/address"
	"github.com/sells-group/fias-importer/internal/model"
	"github.com/sells-group/fias-importer/internal/store"
)

// AddressView is the materialized form of an address object.
type AddressView struct {
	GUID       uuid.UUID          `json:"aoguid"`
	Level      model.Level        `json:"aolevel"`
	Address    model.AddressInfo  `json:"address"`
	Components address.Components `json:"components"`
}

// ShowAddress materializes the address object guid from st.
func ShowAddress(ctx context.Context, st store.Store, guid uuid.UUID) (*AddressView, error) {
	leaf, err := st.AddrObj(ctx, guid)
	if err != nil {
		return nil, eris.Wrapf(err, "api: address %s", guid)
	}
	chain, err := address.Chain(ctx, st, leaf)
	if err != nil {
		return nil, err
	}
	return &AddressView{
		GUID:       leaf.GUID,
		Level:      leaf.Level,
		Address:    address.FromChain(chain),
		Components: address.ComponentsOf(chain),
	}, nil
}

// RecordView is a record with its house-qualified address strings.
type RecordView struct {
	*model.Record
	FullAddress  string `json:"full_address"`
	ShortAddress string `json:"short_address"`
}

// NewRecordView composes the house-qualified addresses of rec.
func NewRecordView(rec *model.Record) RecordView {
	return RecordView{
		Record:       rec,
		FullAddress:  address.FullAddress(rec.Address, rec.House),
		ShortAddress: address.ShortAddress(rec.Address, rec.House),
	}
}

// ShowRecord loads the record id from st.
func ShowRecord(ctx context.Context, st store.Store, id uuid.UUID) (RecordView, error) {
	rec, err := st.GetRecord(ctx, id)
	if err != nil {
		return RecordView{}, eris.Wrap(err, "api: record")
	}
	return NewRecordView(rec), nil
}
