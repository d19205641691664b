// Package fias holds the Postgres schema of the classifier and the import log.
package fias

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fias-importer/internal/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLockID keys the transaction-scoped advisory lock that serializes
// concurrent `fias migrate` and `fias import` runs.
const migrationLockID = 4419001

// Migration is one embedded schema file, named NNN_description.sql.
type Migration struct {
	Version int    `json:"version"`
	File    string `json:"file"`
	Applied bool   `json:"applied"`
}

// MigrationReport describes the outcome of a Migrate run.
type MigrationReport struct {
	Applied []Migration `json:"applied"`
	Version int         `json:"version"`
}

// Migrate brings the fias schema up to the newest embedded version. All
// pending files are applied in one transaction: either the schema reaches
// the newest version or nothing changes.
func Migrate(ctx context.Context, pool db.Pool) (*MigrationReport, error) {
	log := zap.L().With(zap.String("component", "fias.migrate"))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "fias: migrate: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return nil, eris.Wrap(err, "fias: migrate: acquire advisory lock")
	}
	if err := ensureMigrationTable(ctx, tx); err != nil {
		return nil, err
	}

	plan, err := migrationPlan(ctx, tx)
	if err != nil {
		return nil, err
	}

	report := &MigrationReport{}
	for _, m := range plan {
		if m.Applied {
			report.Version = m.Version
			continue
		}

		data, err := migrationFS.ReadFile("migrations/" + m.File)
		if err != nil {
			return nil, eris.Wrapf(err, "fias: migrate: read %s", m.File)
		}

		start := time.Now()
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return nil, eris.Wrapf(err, "fias: migrate: apply %s", m.File)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO fias.schema_migrations (version, filename, applied_at) VALUES ($1, $2, now())",
			m.Version, m.File,
		); err != nil {
			return nil, eris.Wrapf(err, "fias: migrate: record %s", m.File)
		}
		log.Info("applied migration",
			zap.Int("version", m.Version),
			zap.String("file", m.File),
			zap.Duration("elapsed", time.Since(start)),
		)

		m.Applied = true
		report.Applied = append(report.Applied, m)
		report.Version = m.Version
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "fias: migrate: commit tx")
	}
	return report, nil
}

// Migrations lists every embedded migration with its applied state,
// without changing the schema.
func Migrations(ctx context.Context, pool db.Pool) ([]Migration, error) {
	var exists bool
	if err := pool.QueryRow(ctx,
		"SELECT to_regclass('fias.schema_migrations') IS NOT NULL",
	).Scan(&exists); err != nil {
		return nil, eris.Wrap(err, "fias: check migration table")
	}
	if !exists {
		return embeddedMigrations()
	}
	return migrationPlan(ctx, pool)
}

// migrationPlan merges the embedded files with fias.schema_migrations. It
// rejects a database that ran a version this binary does not carry, or
// that recorded a version under a different file name.
func migrationPlan(ctx context.Context, pool db.Pool) ([]Migration, error) {
	embedded, err := embeddedMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return nil, err
	}

	for i, m := range embedded {
		file, ok := applied[m.Version]
		if !ok {
			continue
		}
		if file != m.File {
			return nil, eris.Errorf("fias: migration %d applied as %s, embedded as %s", m.Version, file, m.File)
		}
		embedded[i].Applied = true
		delete(applied, m.Version)
	}
	if len(applied) > 0 {
		unknown := make([]int, 0, len(applied))
		for version := range applied {
			unknown = append(unknown, version)
		}
		sort.Ints(unknown)
		return nil, eris.Errorf("fias: schema has migration %d (%s) unknown to this build", unknown[0], applied[unknown[0]])
	}
	return embedded, nil
}

// embeddedMigrations parses the embedded file names, ordered by version.
func embeddedMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, eris.Wrap(err, "fias: read migration dir")
	}
	out := make([]Migration, 0, len(entries))
	seen := make(map[int]string, len(entries))
	for _, e := range entries {
		version, err := migrationVersion(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[version]; dup {
			return nil, eris.Errorf("fias: migrations %s and %s share version %d", prev, e.Name(), version)
		}
		seen[version] = e.Name()
		out = append(out, Migration{Version: version, File: e.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func migrationVersion(file string) (int, error) {
	prefix, _, ok := strings.Cut(file, "_")
	if !ok || !strings.HasSuffix(file, ".sql") {
		return 0, eris.Errorf("fias: migration %s is not named NNN_description.sql", file)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, eris.Errorf("fias: migration %s has no positive version prefix", file)
	}
	return version, nil
}

func ensureMigrationTable(ctx context.Context, pool db.Pool) error {
	sql := `
		CREATE SCHEMA IF NOT EXISTS fias;
		CREATE TABLE IF NOT EXISTS fias.schema_migrations (
			version    INTEGER PRIMARY KEY,
			filename   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	if _, err := pool.Exec(ctx, sql); err != nil {
		return eris.Wrap(err, "fias: ensure migration table")
	}
	return nil
}

func appliedMigrations(ctx context.Context, pool db.Pool) (map[int]string, error) {
	rows, err := pool.Query(ctx, "SELECT version, filename FROM fias.schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "fias: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[int]string)
	for rows.Next() {
		var (
			version int
			file    string
		)
		if err := rows.Scan(&version, &file); err != nil {
			return nil, eris.Wrap(err, "fias: scan migration row")
		}
		applied[version] = file
	}
	return applied, rows.Err()
}
