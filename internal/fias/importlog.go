package fias

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fias-importer/internal/db"
)

// Import statuses recorded in fias.import_log.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// ImportEntry represents a row in fias.import_log.
type ImportEntry struct {
	ID          int64          `json:"id"`
	Table       string         `json:"table"`
	Status      string         `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	RowsLoaded  int64          `json:"rows_loaded"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ImportLog provides read/write access to the fias.import_log table.
type ImportLog struct {
	pool db.Pool
}

// NewImportLog creates a new ImportLog backed by the given connection pool.
func NewImportLog(pool db.Pool) *ImportLog {
	return &ImportLog{pool: pool}
}

// LastSuccess returns the start time of the most recent successful import of
// a table, or nil if it was never imported.
func (l *ImportLog) LastSuccess(ctx context.Context, table string) (*time.Time, error) {
	var t time.Time
	err := l.pool.QueryRow(ctx,
		`SELECT started_at FROM fias.import_log
		 WHERE table_name = $1 AND status = 'complete'
		 ORDER BY started_at DESC LIMIT 1`,
		table,
	).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "importlog: last success for %s", table)
	}
	return &t, nil
}

// Start records the beginning of a table import and returns its ID.
func (l *ImportLog) Start(ctx context.Context, table string) (int64, error) {
	var id int64
	err := l.pool.QueryRow(ctx,
		`INSERT INTO fias.import_log (table_name, status, started_at)
		 VALUES ($1, 'running', now()) RETURNING id`,
		table,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "importlog: start import of %s", table)
	}
	return id, nil
}

// Complete marks an import as successfully completed.
func (l *ImportLog) Complete(ctx context.Context, id int64, rows int64, metadata map[string]any) error {
	var metaJSON []byte
	if metadata != nil {
		var err error
		metaJSON, err = json.Marshal(metadata)
		if err != nil {
			return eris.Wrap(err, "importlog: marshal metadata")
		}
	}

	_, err := l.pool.Exec(ctx,
		`UPDATE fias.import_log
		 SET status = 'complete', completed_at = now(), rows_loaded = $1, metadata = $2
		 WHERE id = $3`,
		rows, metaJSON, id,
	)
	if err != nil {
		return eris.Wrapf(err, "importlog: complete import %d", id)
	}
	return nil
}

// Fail marks an import as failed with an error message.
func (l *ImportLog) Fail(ctx context.Context, id int64, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE fias.import_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "importlog: fail import %d", id)
	}
	return nil
}

// ListAll returns all import log entries, most recent first.
func (l *ImportLog) ListAll(ctx context.Context) ([]ImportEntry, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, table_name, status, started_at, completed_at, rows_loaded, error, metadata
		 FROM fias.import_log ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "importlog: list all")
	}
	defer rows.Close()

	var entries []ImportEntry
	for rows.Next() {
		var e ImportEntry
		var errStr *string
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.Table, &e.Status, &e.StartedAt, &e.CompletedAt, &e.RowsLoaded, &errStr, &metaJSON); err != nil {
			return nil, eris.Wrap(err, "importlog: scan entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		if metaJSON != nil {
			_ = json.Unmarshal(metaJSON, &e.Metadata)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
