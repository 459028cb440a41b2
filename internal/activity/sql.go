package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect captures the differences between the SQL backends.
type Dialect struct {
	Name        string
	Schema      string
	Placeholder func(n int) string
}

// SQLStore keeps records in a SQL table. Timestamps are stored as Unix
// milliseconds so range queries behave the same on every backend.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an open database. Call Migrate before first use.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Name implements Store.
func (s *SQLStore) Name() string { return s.dialect.Name }

// Migrate creates the activities table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(s.dialect.Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate %s activity store: %w", s.dialect.Name, err)
		}
	}
	return nil
}

func (s *SQLStore) args(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s.dialect.Placeholder(i + 1)
	}
	return out
}

// Append implements Store.
func (s *SQLStore) Append(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode activity payload: %w", err)
	}
	p := s.args(4)
	query := "INSERT INTO " + Collection + " (id, type, ts_ms, payload) VALUES (" + strings.Join(p, ", ") + ")"
	if _, err := s.db.ExecContext(ctx, query, rec.ID, string(rec.Type), rec.Timestamp.UnixMilli(), string(payload)); err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// Between implements Store.
func (s *SQLStore) Between(ctx context.Context, from, to time.Time) ([]Record, error) {
	p := s.args(2)
	query := "SELECT id, type, ts_ms, payload FROM " + Collection +
		" WHERE ts_ms >= " + p[0] + " AND ts_ms < " + p[1] + " ORDER BY ts_ms ASC, id ASC"
	return s.query(ctx, query, from.UnixMilli(), to.UnixMilli())
}

// Recent implements Store.
func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := "SELECT id, type, ts_ms, payload FROM " + Collection +
		" ORDER BY ts_ms DESC, id DESC LIMIT " + s.dialect.Placeholder(1)
	return s.query(ctx, query, limit)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...interface{}) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			rec     Record
			typ     string
			tsMilli int64
			payload []byte
		)
		if err := rows.Scan(&rec.ID, &typ, &tsMilli, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		rec.Type = Type(typ)
		rec.Timestamp = time.UnixMilli(tsMilli).UTC()
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, &rec.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode payload of activity %s: %w", rec.ID, err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read activities: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }
