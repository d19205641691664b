package fias

import (
	"context"
	"fmt"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var schemaFiles = []struct {
	version int
	file    string
	creates string
}{
	{1, "001_classifier.sql", "CREATE TABLE IF NOT EXISTS fias.addrobj"},
	{2, "002_import_log.sql", "CREATE TABLE IF NOT EXISTS fias.import_log"},
	{3, "003_address_records.sql", "CREATE TABLE IF NOT EXISTS fias.address_record"},
}

// expectMigrationStart covers begin, lock, tracking table and the applied
// versions query that open every Migrate run.
func expectMigrationStart(mock pgxmock.PgxPoolIface, applied map[int]string) {
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(migrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS fias").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	rows := pgxmock.NewRows([]string{"version", "filename"})
	for version, file := range applied {
		rows.AddRow(version, file)
	}
	mock.ExpectQuery("SELECT version, filename FROM fias.schema_migrations").WillReturnRows(rows)
}

func expectApply(mock pgxmock.PgxPoolIface, version int, file, creates string) {
	mock.ExpectExec(creates).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO fias.schema_migrations").
		WithArgs(version, file).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func appliedFiles(report *MigrationReport) []string {
	var out []string
	for _, m := range report.Applied {
		out = append(out, m.File)
	}
	return out
}

func TestMigrate_EmptySchemaGetsClassifierLogAndRecords(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrationStart(mock, nil)
	for _, f := range schemaFiles {
		expectApply(mock, f.version, f.file, f.creates)
	}
	mock.ExpectCommit()

	report, err := Migrate(context.Background(), mock)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_classifier.sql", "002_import_log.sql", "003_address_records.sql"}, appliedFiles(report))
	assert.Equal(t, 3, report.Version)
	for _, m := range report.Applied {
		assert.True(t, m.Applied)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_AddsRecordTableToExistingImporterSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrationStart(mock, map[int]string{1: "001_classifier.sql", 2: "002_import_log.sql"})
	expectApply(mock, 3, "003_address_records.sql", "CREATE TABLE IF NOT EXISTS fias.address_record")
	mock.ExpectCommit()

	report, err := Migrate(context.Background(), mock)
	require.NoError(t, err)
	assert.Equal(t, []string{"003_address_records.sql"}, appliedFiles(report))
	assert.Equal(t, 3, report.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_UpToDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrationStart(mock, map[int]string{
		1: "001_classifier.sql",
		2: "002_import_log.sql",
		3: "003_address_records.sql",
	})
	mock.ExpectCommit()

	report, err := Migrate(context.Background(), mock)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Equal(t, 3, report.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_FailedFileRollsBackWholeRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrationStart(mock, nil)
	expectApply(mock, 1, "001_classifier.sql", "CREATE TABLE IF NOT EXISTS fias.addrobj")
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS fias.import_log").
		WillReturnError(fmt.Errorf("permission denied for schema fias"))
	mock.ExpectRollback()

	report, err := Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "fias: migrate: apply 002_import_log.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RecordVersionError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrationStart(mock, map[int]string{1: "001_classifier.sql", 2: "002_import_log.sql"})
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS fias.address_record").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO fias.schema_migrations").
		WithArgs(3, "003_address_records.sql").
		WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	_, err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fias: migrate: record 003_address_records.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RenamedAppliedFileRejected(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrationStart(mock, map[int]string{1: "001_addrobj.sql"})
	mock.ExpectRollback()

	_, err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 1 applied as 001_addrobj.sql, embedded as 001_classifier.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_SchemaNewerThanBuildRejected(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectMigrationStart(mock, map[int]string{
		1: "001_classifier.sql",
		2: "002_import_log.sql",
		3: "003_address_records.sql",
		4: "004_steads.sql",
	})
	mock.ExpectRollback()

	_, err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema has migration 4 (004_steads.sql) unknown to this build")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_AdvisoryLockError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WillReturnError(fmt.Errorf("canceling statement due to lock timeout"))
	mock.ExpectRollback()

	_, err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire advisory lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_BeginError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(fmt.Errorf("too many connections"))

	_, err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fias: migrate: begin tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_BeforeFirstMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("to_regclass").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	plan, err := Migrations(context.Background(), mock)
	require.NoError(t, err)
	require.Len(t, plan, len(schemaFiles))
	for i, m := range plan {
		assert.Equal(t, schemaFiles[i].version, m.Version)
		assert.Equal(t, schemaFiles[i].file, m.File)
		assert.False(t, m.Applied)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_PartiallyApplied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("to_regclass").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT version, filename FROM fias.schema_migrations").
		WillReturnRows(pgxmock.NewRows([]string{"version", "filename"}).AddRow(1, "001_classifier.sql"))

	plan, err := Migrations(context.Background(), mock)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 1, File: "001_classifier.sql", Applied: true},
		{Version: 2, File: "002_import_log.sql"},
		{Version: 3, File: "003_address_records.sql"},
	}, plan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("to_regclass").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT version, filename FROM fias.schema_migrations").
		WillReturnError(fmt.Errorf("connection reset by peer"))

	_, err = Migrations(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query applied migrations")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmbeddedMigrations_OrderedByVersion(t *testing.T) {
	plan, err := embeddedMigrations()
	require.NoError(t, err)
	require.Len(t, plan, len(schemaFiles))
	for i, m := range plan {
		assert.Equal(t, schemaFiles[i].version, m.Version)
		assert.Equal(t, schemaFiles[i].file, m.File)

		data, err := migrationFS.ReadFile("migrations/" + m.File)
		require.NoError(t, err)
		assert.Contains(t, string(data), schemaFiles[i].creates)
	}
}

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		file    string
		want    int
		wantErr bool
	}{
		{file: "001_classifier.sql", want: 1},
		{file: "012_steads.sql", want: 12},
		{file: "classifier.sql", wantErr: true},
		{file: "000_bootstrap.sql", wantErr: true},
		{file: "v1_classifier.sql", wantErr: true},
		{file: "004_houseint.txt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := migrationVersion(tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
