package loader

import (
	"github.com/sells-group/fias-importer/internal/db"
	"github.com/sells-group/fias-importer/internal/model"
)

var houseColumns = []string{
	"houseguid", "aoguid", "housenum", "buildnum", "strucnum",
	"postalcode", "startdate", "enddate",
}

// NewHouse builds the handler for the house table.
func NewHouse(table model.Table) Handler {
	return &tableHandler{
		table: table,
		target: db.UpsertConfig{
			Table:        "fias.house",
			Columns:      houseColumns,
			ConflictKeys: []string{"houseguid"},
		},
		mapRow: mapHouse,
	}
}

func mapHouse(rec Record) ([]any, bool) {
	guid, ok := parseUUID(rec.Get("houseguid"))
	if !ok {
		return nil, false
	}
	ao, ok := parseUUID(rec.Get("aoguid"))
	if !ok {
		return nil, false
	}

	return []any{
		guid,
		ao,
		rec.Get("housenum"),
		nullIfEmpty(rec.Get("buildnum")),
		nullIfEmpty(rec.Get("strucnum")),
		nullIfEmpty(rec.Get("postalcode")),
		nullDate(rec.Get("startdate")),
		nullDate(rec.Get("enddate")),
	}, true
}
