// Package db provides shared Postgres helpers for bulk upsert and copy operations.
package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
// Schema-qualified names like "fias.socrbase" are split into identifier parts.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, identifier(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}

// Truncate empties a table. Used by handlers that reload a table wholesale.
func Truncate(ctx context.Context, pool Pool, table string) error {
	if _, err := pool.Exec(ctx, "TRUNCATE "+sanitizeTable(table)); err != nil {
		return eris.Wrapf(err, "db: truncate %s", table)
	}
	return nil
}

func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.SplitN(table, ".", 2))
}
