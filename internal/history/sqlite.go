package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)
)

// Schema version is tracked in the schema_versions table.
var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS incident_history (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    location      TEXT NOT NULL,
    incident_type TEXT NOT NULL,
    recorded_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_pair ON incident_history(location, incident_type, recorded_at ASC);
CREATE INDEX IF NOT EXISTS idx_history_recorded_at ON incident_history(recorded_at ASC);
`,
	},
}

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the timestamp log at path and applies
// any unapplied migrations. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &sqliteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate applies any unapplied migrations in order.
func (s *sqliteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_versions (
    version     INTEGER PRIMARY KEY,
    applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		var count int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM schema_versions WHERE version = ?`, m.version).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_versions(version) VALUES(?)`, m.version); err != nil {
			return err
		}
	}
	return nil
}

func (s *sqliteStore) RecordIncident(ctx context.Context, location, incidentType string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incident_history(location, incident_type, recorded_at)
		VALUES(?, ?, ?)`,
		location, incidentType, ts.UTC())
	if err != nil {
		return fmt.Errorf("record incident: %w", err)
	}
	return nil
}

func (s *sqliteStore) Timestamps(ctx context.Context, location, incidentType string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at FROM incident_history
		WHERE location = ? AND incident_type = ?
		ORDER BY recorded_at ASC`,
		location, incidentType)
	if err != nil {
		return nil, fmt.Errorf("query timestamps: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM incident_history WHERE recorded_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
