package history

import (
	"context"
	"time"
)

// Package history persists the per-(location, incident type) incident
// timestamp log that feeds risk prediction.
//
// Responsibilities:
//   - Append incident timestamps as they are recorded
//   - Return a pair's timestamps in ascending order for trend analysis
//   - Prune entries older than the retention window so the log is bounded
//
// Two implementations: an in-memory store for tests and ephemeral deployments,
// and a SQLite store (pure-Go driver, WAL mode) for persistence across
// restarts. Both are safe for concurrent use; SQLite serializes writers
// itself, the memory store carries a mutex.

// Store is the incident timestamp log consumed by the risk predictor.
type Store interface {
	// RecordIncident appends one timestamp for the pair.
	RecordIncident(ctx context.Context, location, incidentType string, ts time.Time) error

	// Timestamps returns the pair's recorded timestamps in ascending order.
	// A pair never recorded yields an empty slice, not an error.
	Timestamps(ctx context.Context, location, incidentType string) ([]time.Time, error)

	// Prune deletes entries recorded before the cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)

	// Close releases store resources.
	Close() error
}
