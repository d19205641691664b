package loader

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fias-importer/internal/db"
	"github.com/sells-group/fias-importer/internal/fias"
	"github.com/sells-group/fias-importer/internal/model"
)

// OpenFunc opens the source records of a table. The returned closer, if
// non-nil, is closed once the table has been loaded.
type OpenFunc func(table model.Table) (Source, io.Closer, error)

// ImportLogger records import runs. *fias.ImportLog implements it.
type ImportLogger interface {
	Start(ctx context.Context, table string) (int64, error)
	Complete(ctx context.Context, id int64, rows int64, metadata map[string]any) error
	Fail(ctx context.Context, id int64, errMsg string) error
}

var _ ImportLogger = (*fias.ImportLog)(nil)

// Summary tallies an import run.
type Summary struct {
	Loaded []string `json:"loaded"`
	Failed []string `json:"failed"`
	Rows   int64    `json:"rows"`
}

// Importer drives table handlers over a list of tables.
type Importer struct {
	pool     db.Pool
	resolver *Resolver
	log      ImportLogger
	opts     Options
}

// NewImporter creates an importer.
func NewImporter(pool db.Pool, resolver *Resolver, importLog ImportLogger, opts Options) *Importer {
	return &Importer{
		pool:     pool,
		resolver: resolver,
		log:      importLog,
		opts:     opts,
	}
}

// Run resolves and loads each table in order. An unknown table aborts the
// run with *UnknownTableError. A failing handler is recorded in the import
// log and the run moves on to the next table.
func (im *Importer) Run(ctx context.Context, tables []model.Table, open OpenFunc) (*Summary, error) {
	log := zap.L().With(zap.String("component", "loader.importer"))
	summary := &Summary{}

	for _, table := range tables {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		handler, err := im.resolver.Resolve(table)
		if err != nil {
			return summary, err
		}

		tLog := log.With(
			zap.String("table", table.FullName),
			zap.String("loaders", im.resolver.Origin(table.FullName)),
		)

		importID, err := im.log.Start(ctx, table.FullName)
		if err != nil {
			return summary, eris.Wrapf(err, "importer: start import log for %s", table.FullName)
		}

		tLog.Info("starting import")
		start := time.Now()
		result, err := im.load(ctx, handler, open)
		elapsed := time.Since(start)

		if err != nil {
			tLog.Error("import failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			// The run's ctx may already be done; the log row must still be closed.
			if logErr := im.log.Fail(context.WithoutCancel(ctx), importID, err.Error()); logErr != nil {
				tLog.Error("failed to record import failure", zap.Error(logErr))
			}
			if errors.Is(err, context.Canceled) {
				return summary, err
			}
			summary.Failed = append(summary.Failed, table.FullName)
			continue
		}

		if err := im.log.Complete(ctx, importID, result.RowsLoaded, result.Metadata); err != nil {
			tLog.Error("failed to record import completion", zap.Error(err))
		}

		tLog.Info("import complete",
			zap.Int64("rows", result.RowsLoaded),
			zap.Int64("skipped", result.RowsSkipped),
			zap.Duration("elapsed", elapsed),
		)
		summary.Loaded = append(summary.Loaded, table.FullName)
		summary.Rows += result.RowsLoaded
	}

	log.Info("import run complete",
		zap.Int("loaded", len(summary.Loaded)),
		zap.Int("failed", len(summary.Failed)),
		zap.Int64("rows", summary.Rows),
	)
	return summary, nil
}

func (im *Importer) load(ctx context.Context, handler Handler, open OpenFunc) (*Result, error) {
	src, closer, err := open(handler.Table())
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", handler.Table().FullName)
	}
	if closer != nil {
		defer closer.Close() //nolint:errcheck
	}
	return handler.Load(ctx, im.pool, src, im.opts)
}
