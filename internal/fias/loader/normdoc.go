package loader

import (
	"github.com/sells-group/fias-importer/internal/db"
	"github.com/sells-group/fias-importer/internal/model"
)

// NewNormDoc builds the handler for the normative document table.
func NewNormDoc(table model.Table) Handler {
	return &tableHandler{
		table: table,
		target: db.UpsertConfig{
			Table:        "fias.normdoc",
			Columns:      []string{"normdocid", "docname", "docdate", "docnum", "doctype"},
			ConflictKeys: []string{"normdocid"},
		},
		mapRow: mapNormDoc,
	}
}

func mapNormDoc(rec Record) ([]any, bool) {
	id, ok := parseUUID(rec.Get("normdocid"))
	if !ok {
		return nil, false
	}
	return []any{
		id,
		nullIfEmpty(rec.Get("docname")),
		nullDate(rec.Get("docdate")),
		nullIfEmpty(rec.Get("docnum")),
		int16(parseIntOr(rec.Get("doctype"), 0)),
	}, true
}
