package loader

import (
	"github.com/sells-group/fias-importer/internal/db"
	"github.com/sells-group/fias-importer/internal/model"
)

// actualStatus marks the current version of an address object.
const actualStatus = 1

var addrobjColumns = []string{
	"aoguid", "parentguid", "aoid", "aolevel", "formalname", "offname",
	"shortname", "regioncode", "postalcode", "code", "updatedate",
}

// NewAddrObj builds the handler for the address object table. Only actual
// versions (actstatus=1) are kept.
func NewAddrObj(table model.Table) Handler {
	return &tableHandler{
		table: table,
		target: db.UpsertConfig{
			Table:        "fias.addrobj",
			Columns:      addrobjColumns,
			ConflictKeys: []string{"aoguid"},
		},
		mapRow: mapAddrObj,
	}
}

func mapAddrObj(rec Record) ([]any, bool) {
	if parseIntOr(rec.Get("actstatus"), 0) != actualStatus {
		return nil, false
	}
	guid, ok := parseUUID(rec.Get("aoguid"))
	if !ok {
		return nil, false
	}
	level := parseIntOr(rec.Get("aolevel"), 0)
	if level <= 0 {
		return nil, false
	}

	return []any{
		guid,
		nullUUID(rec.Get("parentguid")),
		nullUUID(rec.Get("aoid")),
		int16(level),
		rec.Get("formalname"),
		nullIfEmpty(rec.Get("offname")),
		rec.Get("shortname"),
		rec.Get("regioncode"),
		nullIfEmpty(rec.Get("postalcode")),
		nullIfEmpty(rec.Get("code")),
		nullDate(rec.Get("updatedate")),
	}, true
}
