package availability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/meeting"
)

// BusySource reports occupied intervals of the calendar being scheduled.
type BusySource interface {
	QueryBusy(ctx context.Context, timeMin, timeMax time.Time) ([]meeting.BusyInterval, error)
}

// BusySourceFunc adapts a function to BusySource.
type BusySourceFunc func(ctx context.Context, timeMin, timeMax time.Time) ([]meeting.BusyInterval, error)

// QueryBusy calls f.
func (f BusySourceFunc) QueryBusy(ctx context.Context, timeMin, timeMax time.Time) ([]meeting.BusyInterval, error) {
	return f(ctx, timeMin, timeMax)
}

// EngineConfig holds the dependencies of an Engine.
type EngineConfig struct {
	Source  BusySource
	Options Options
	// Clock defaults to time.Now.
	Clock   func() time.Time
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Engine answers availability questions against a live calendar.
type Engine struct {
	source  BusySource
	opts    Options
	clock   func() time.Time
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		source:  cfg.Source,
		opts:    cfg.Options.normalized(),
		clock:   cfg.Clock,
		logger:  logging.WithComponent(cfg.Logger, "availability"),
		metrics: cfg.Metrics,
	}
}

// Options returns the effective search options.
func (e *Engine) Options() Options {
	return e.opts
}

// Search returns free slots for a meeting of durationMinutes. If the busy
// lookup fails the failure is logged and an empty list is returned.
func (e *Engine) Search(ctx context.Context, durationMinutes int, urgency meeting.Urgency) []meeting.Slot {
	return e.SearchN(ctx, durationMinutes, urgency, e.opts.MaxSlots)
}

// SearchN is Search with an explicit result cap.
func (e *Engine) SearchN(ctx context.Context, durationMinutes int, urgency meeting.Urgency, limit int) []meeting.Slot {
	started := time.Now()
	ctx, span := instrumentation.StartStageSpan(ctx, "search",
		attribute.String(instrumentation.SpanAttrUrgency, string(urgency)),
		attribute.Int(instrumentation.SpanAttrDuration, durationMinutes),
	)
	defer span.End()

	now := e.clock()
	opts := e.opts
	if limit > 0 {
		opts.MaxSlots = limit
	}
	timeMin, timeMax := opts.Window(urgency, now)

	busy, err := e.source.QueryBusy(ctx, timeMin, timeMax)
	if err != nil {
		e.logger.WarnContext(ctx, "busy lookup failed, reporting no availability",
			logging.Urgency(string(urgency)),
			logging.Err(err))
		instrumentation.SetSpanError(span, err)
		e.metrics.RecordSlotSearch(ctx, string(urgency), 0, time.Since(started))
		return []meeting.Slot{}
	}

	slots := FindSlots(durationMinutes, urgency, busy, now, opts)

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrSlots, len(slots)))
	instrumentation.SetSpanSuccess(span)
	e.metrics.RecordSlotSearch(ctx, string(urgency), len(slots), time.Since(started))
	e.logger.DebugContext(ctx, "slot search finished",
		logging.Urgency(string(urgency)),
		slog.Int("busy_intervals", len(busy)),
		slog.Int("slots", len(slots)))

	return slots
}
