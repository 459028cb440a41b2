package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/logging"
)

// DefaultRecentLimit is used when Recent is called without a positive limit.
const DefaultRecentLimit = 20

// Log records assistant activity.
type Log struct {
	store   Store
	clock   func() time.Time
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewLog creates a Log on top of store.
func NewLog(store Store, logger *slog.Logger, metrics *instrumentation.Metrics) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		store:   store,
		clock:   time.Now,
		logger:  logging.WithComponent(logger, "activity"),
		metrics: metrics,
	}
}

// Record appends an entry. ID and Timestamp are filled in when empty. A
// store failure is logged and swallowed.
func (l *Log) Record(ctx context.Context, rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.clock()
	}
	rec.Timestamp = rec.Timestamp.UTC()

	if err := l.store.Append(ctx, rec); err != nil {
		l.metrics.RecordActivityWrite(ctx, l.store.Name(), instrumentation.StatusError)
		l.logger.ErrorContext(ctx, "failed to record activity",
			slog.String("type", string(rec.Type)),
			slog.String("store", l.store.Name()),
			logging.Err(err))
		return
	}
	l.metrics.RecordActivityWrite(ctx, l.store.Name(), instrumentation.StatusSuccess)
}

// Add is a shorthand for Record with a type and payload.
func (l *Log) Add(ctx context.Context, typ Type, payload map[string]interface{}) {
	l.Record(ctx, Record{Type: typ, Payload: payload})
}

// Day returns the records of the UTC calendar day containing day.
func (l *Log) Day(ctx context.Context, day time.Time) ([]Record, error) {
	from := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return l.store.Between(ctx, from, from.Add(24*time.Hour))
}

// Recent returns the newest records.
func (l *Log) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return l.store.Recent(ctx, limit)
}

// Close releases the underlying store.
func (l *Log) Close() error {
	return l.store.Close()
}
