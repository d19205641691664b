package loader

import (
	"github.com/sells-group/fias-importer/internal/db"
	"github.com/sells-group/fias-importer/internal/model"
)

// NewSocrBase builds the handler for the address object type dictionary.
// A full load replaces the dictionary; a delta load upserts into it.
func NewSocrBase(table model.Table) Handler {
	return &tableHandler{
		table: table,
		target: db.UpsertConfig{
			Table:        "fias.socrbase",
			Columns:      []string{"kod_t_st", "level", "scname", "socrname"},
			ConflictKeys: []string{"kod_t_st"},
		},
		mapRow:  mapSocrBase,
		replace: true,
	}
}

func mapSocrBase(rec Record) ([]any, bool) {
	code := rec.Get("kod_t_st")
	if code == "" {
		return nil, false
	}
	return []any{
		code,
		int16(parseIntOr(rec.Get("level"), 0)),
		rec.Get("scname"),
		rec.Get("socrname"),
	}, true
}
