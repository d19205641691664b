package db

import (
	"context"
)

// Batcher accumulates rows and upserts them every Size rows.
type Batcher struct {
	pool  Pool
	cfg   UpsertConfig
	size  int
	rows  [][]any
	total int64
	retry RetryConfig
}

// NewBatcher creates a Batcher flushing into cfg.Table. A non-positive size
// flushes only on Flush.
func NewBatcher(pool Pool, cfg UpsertConfig, size int) *Batcher {
	return &Batcher{pool: pool, cfg: cfg, size: size, retry: DefaultRetryConfig()}
}

// Add queues a row, flushing when the batch is full.
func (b *Batcher) Add(ctx context.Context, row []any) error {
	b.rows = append(b.rows, row)
	if b.size > 0 && len(b.rows) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush upserts any queued rows. Transient failures retry the whole batch.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.rows) == 0 {
		return nil
	}
	var n int64
	err := retry(ctx, b.retry, "upsert "+b.cfg.Table, func(ctx context.Context) error {
		var err error
		n, err = BulkUpsert(ctx, b.pool, b.cfg, b.rows)
		return err
	})
	if err != nil {
		return err
	}
	b.total += n
	b.rows = b.rows[:0]
	return nil
}

// Total returns the number of rows affected by flushed batches.
func (b *Batcher) Total() int64 {
	return b.total
}
