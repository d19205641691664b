package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/fias-importer/internal/fias"
)

func TestMigrateCmd_PlanFlag(t *testing.T) {
	f := migrateCmd.Flags().Lookup("plan")
	if assert.NotNil(t, f) {
		assert.Equal(t, "false", f.DefValue)
	}
}

func TestFormatMigrationPlan(t *testing.T) {
	plan := []fias.Migration{
		{Version: 1, File: "001_classifier.sql", Applied: true},
		{Version: 2, File: "002_import_log.sql", Applied: true},
		{Version: 3, File: "003_address_records.sql"},
	}

	var buf bytes.Buffer
	formatMigrationPlan(&buf, plan)
	newGolden(t).Assert(t, "migrate_plan", buf.Bytes())
}

func TestFormatMigrationReport(t *testing.T) {
	var buf bytes.Buffer
	formatMigrationReport(&buf, &fias.MigrationReport{
		Applied: []fias.Migration{{Version: 3, File: "003_address_records.sql", Applied: true}},
		Version: 3,
	})
	assert.Equal(t, "applied 003_address_records.sql\nschema at version 3\n", buf.String())

	buf.Reset()
	formatMigrationReport(&buf, &fias.MigrationReport{Version: 3})
	assert.Equal(t, "schema up to date at version 3\n", buf.String())
}
