package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Postgres stores records in PostgreSQL with a JSONB payload.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: dollar,
	Schema: `CREATE TABLE IF NOT EXISTS activities (
	id      TEXT PRIMARY KEY,
	type    TEXT NOT NULL,
	ts_ms   BIGINT NOT NULL,
	payload JSONB
);
CREATE INDEX IF NOT EXISTS activities_ts_ms ON activities (ts_ms)`,
}

// PostgresConfig holds connection settings for the PostgreSQL store.
type PostgresConfig struct {
	DSN            string
	MaxConnections int
	MaxIdle        int
}

// OpenPostgres connects to PostgreSQL and migrates the activity table.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*SQLStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := NewSQLStore(db, Postgres)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
