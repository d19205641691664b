package loader

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fias-importer/internal/db"
	"github.com/sells-group/fias-importer/internal/model"
)

const defaultBatchSize = 5000

// rowMapper converts a record to a target row. ok=false skips the record.
type rowMapper func(rec Record) (row []any, ok bool)

// tableHandler is the shared Handler behind the built-in loaders: it maps
// each record to a row and upserts rows in batches.
type tableHandler struct {
	table  model.Table
	target db.UpsertConfig
	mapRow rowMapper
	// replace truncates the target before a full (non-delta) load.
	replace bool
}

func (h *tableHandler) Table() model.Table { return h.table }

func (h *tableHandler) Load(ctx context.Context, pool db.Pool, src Source, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "loader"), zap.String("table", h.table.FullName))

	size := opts.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}

	if h.replace && !h.table.IsDelta {
		if err := db.Truncate(ctx, pool, h.target.Table); err != nil {
			return nil, eris.Wrapf(err, "loader: %s: replace", h.table.FullName)
		}
	}

	batch := db.NewBatcher(pool, h.target, size)
	var skipped int64
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "loader: %s: read", h.table.FullName)
		}

		row, ok := h.mapRow(rec)
		if !ok {
			skipped++
			continue
		}
		if err := batch.Add(ctx, row); err != nil {
			return nil, eris.Wrapf(err, "loader: %s: upsert", h.table.FullName)
		}
	}

	if err := batch.Flush(ctx); err != nil {
		return nil, eris.Wrapf(err, "loader: %s: upsert final batch", h.table.FullName)
	}

	log.Debug("table loaded",
		zap.Int64("rows", batch.Total()),
		zap.Int64("skipped", skipped),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		RowsLoaded:  batch.Total(),
		RowsSkipped: skipped,
		Metadata:    map[string]any{"target": h.target.Table, "delta": h.table.IsDelta},
	}, nil
}
