package fias

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Staleness describes a table whose last successful import is older than
// the allowed age. LastSuccess is nil when the table was never imported.
type Staleness struct {
	Table       string        `json:"table"`
	LastSuccess *time.Time    `json:"last_success,omitempty"`
	Age         time.Duration `json:"age"`
}

// Stale returns the tables not successfully imported within maxAge of now.
func (l *ImportLog) Stale(ctx context.Context, tables []string, maxAge time.Duration, now time.Time) ([]Staleness, error) {
	log := zap.L().With(zap.String("component", "fias.freshness"))

	var stale []Staleness
	for _, table := range tables {
		last, err := l.LastSuccess(ctx, table)
		if err != nil {
			return nil, err
		}
		if last == nil {
			log.Warn("table never imported", zap.String("table", table))
			stale = append(stale, Staleness{Table: table})
			continue
		}
		if age := now.Sub(*last); age > maxAge {
			log.Warn("table import is stale",
				zap.String("table", table),
				zap.Time("last_success", *last),
				zap.Duration("age", age),
			)
			stale = append(stale, Staleness{Table: table, LastSuccess: last, Age: age})
		}
	}
	return stale, nil
}
