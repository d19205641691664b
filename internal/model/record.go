package model

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Column limits of fias.address_record.
const (
	MaxCorpsLen    = 2
	MaxHouseNumber = math.MaxInt16
)

// AddressInfo holds the cached, derived address strings of a record.
type AddressInfo struct {
	Full  string `json:"full_address"`
	Short string `json:"short_address"`
}

// House holds the optional house-number part of an address.
type House struct {
	House     *int   `json:"house,omitempty"`
	Corps     string `json:"corps,omitempty"`
	Apartment *int   `json:"apartment,omitempty"`
}

// Validate checks the house parts against the column limits.
func (h House) Validate() error {
	if h.House != nil && (*h.House < 0 || *h.House > MaxHouseNumber) {
		return eris.Errorf("model: house %d out of range 0..%d", *h.House, MaxHouseNumber)
	}
	if h.Apartment != nil && (*h.Apartment < 0 || *h.Apartment > MaxHouseNumber) {
		return eris.Errorf("model: apartment %d out of range 0..%d", *h.Apartment, MaxHouseNumber)
	}
	if utf8.RuneCountInString(h.Corps) > MaxCorpsLen {
		return eris.Errorf("model: corps %q longer than %d characters", h.Corps, MaxCorpsLen)
	}
	return nil
}

// Record is an address-bearing record. Address is derived from AddressGUID
// and is only refreshed on save.
type Record struct {
	ID          *uuid.UUID  `json:"id,omitempty"`
	Kind        string      `json:"kind"`
	AddressGUID uuid.UUID   `json:"address"`
	Address     AddressInfo `json:"address_info"`
	House       House       `json:"house"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsNew reports whether the record has no persisted identity yet.
func (r *Record) IsNew() bool {
	return r.ID == nil
}
