package activity

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite stores records in a local SQLite file.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: questionMark,
	Schema: `CREATE TABLE IF NOT EXISTS activities (
	id      TEXT PRIMARY KEY,
	type    TEXT NOT NULL,
	ts_ms   INTEGER NOT NULL,
	payload TEXT
);
CREATE INDEX IF NOT EXISTS activities_ts_ms ON activities (ts_ms)`,
}

// OpenSQLite opens (creating if needed) a SQLite activity store at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite serialises writers; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)

	store := NewSQLStore(db, SQLite)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
