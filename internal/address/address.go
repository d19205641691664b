// Package address derives denormalized full and short address strings
// from the FIAS address object hierarchy.
package address

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fias-importer/internal/model"
)

// ErrNotFound is returned by a Lookup when no address object has the key.
var ErrNotFound = errors.New("address: object not found")

const (
	separator = ", "

	// Nodes finer than area make up the short address.
	shortLevel = model.LevelArea
)

// Lookup fetches address objects by aoguid.
type Lookup interface {
	AddrObj(ctx context.Context, guid uuid.UUID) (*model.AddrObj, error)
}

// Chain walks from leaf towards the root and returns the visited nodes,
// leaf first. The walk stops at a region-level node, at a node without a
// parent key, or when the parent cannot be found. Lookup errors other than
// ErrNotFound are returned.
func Chain(ctx context.Context, lookup Lookup, leaf *model.AddrObj) ([]*model.AddrObj, error) {
	if leaf == nil {
		return nil, eris.New("address: nil leaf")
	}

	chain := []*model.AddrObj{leaf}
	seen := map[uuid.UUID]bool{leaf.GUID: true}

	for node := leaf; !node.IsRoot() && node.ParentGUID != nil; {
		parent, err := lookup.AddrObj(ctx, *node.ParentGUID)
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "address: parent of %s", node.GUID)
		}
		if seen[parent.GUID] {
			break
		}
		seen[parent.GUID] = true
		chain = append(chain, parent)
		node = parent
	}

	return chain, nil
}

// Compute builds the full and short address of leaf.
//
// The full address lists every node of the chain, root first. The short
// address keeps only nodes below the area level.
func Compute(ctx context.Context, lookup Lookup, leaf *model.AddrObj) (model.AddressInfo, error) {
	chain, err := Chain(ctx, lookup, leaf)
	if err != nil {
		return model.AddressInfo{}, err
	}
	return FromChain(chain), nil
}

// FromChain formats a leaf-first chain into address strings.
func FromChain(chain []*model.AddrObj) model.AddressInfo {
	full := make([]string, 0, len(chain))
	var short []string

	for i := len(chain) - 1; i >= 0; i-- {
		node := chain[i]
		full = append(full, node.String())
		if node.Level > shortLevel {
			short = append(short, node.String())
		}
	}

	return model.AddressInfo{
		Full:  strings.Join(full, separator),
		Short: strings.Join(short, separator),
	}
}

// Refresh returns the address info to store for a record now pointing at
// leaf, given the address it was persisted with (nil for a new record).
// It returns nil when the address is unchanged and the cached strings are
// still valid.
func Refresh(ctx context.Context, lookup Lookup, old *uuid.UUID, leaf *model.AddrObj) (*model.AddressInfo, error) {
	if old != nil && leaf != nil && *old == leaf.GUID {
		return nil, nil
	}

	info, err := Compute(ctx, lookup, leaf)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
