package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/meeting"
)

// Defaults for Config.
const (
	DefaultCalendarID = "primary"
	DefaultTimeZone   = "America/New_York"
)

// MessageSlotTaken is reported when another request holds the slot guard.
const MessageSlotTaken = "slot already being booked"

// Config holds the dependencies of a Committer.
type Config struct {
	Calendar   Calendar
	CalendarID string
	TimeZone   string
	// Guard is optional; without it concurrent bookings rely on the
	// deterministic event ID alone.
	Guard    SlotGuard
	GuardTTL time.Duration
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
}

// Committer writes bookings to the calendar.
type Committer struct {
	calendar   Calendar
	calendarID string
	timeZone   string
	guard      SlotGuard
	guardTTL   time.Duration
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// NewCommitter creates a Committer.
func NewCommitter(cfg Config) *Committer {
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultTimeZone
	}
	if cfg.GuardTTL <= 0 {
		cfg.GuardTTL = DefaultGuardTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Committer{
		calendar:   cfg.Calendar,
		calendarID: cfg.CalendarID,
		timeZone:   cfg.TimeZone,
		guard:      cfg.Guard,
		guardTTL:   cfg.GuardTTL,
		logger:     logging.WithComponent(cfg.Logger, "booking"),
		metrics:    cfg.Metrics,
	}
}

// CalendarID returns the calendar bookings are written to.
func (c *Committer) CalendarID() string {
	return c.calendarID
}

// BuildRequest assembles the calendar write for a booking without sending it.
func (c *Committer) BuildRequest(intent meeting.Intent, slot meeting.Slot, attendee string) EventRequest {
	attendee = meeting.EmailAddress(attendee)
	start := slot.Start
	id := EventID(c.calendarID, attendee, start)

	req := EventRequest{
		ID:          id,
		CalendarID:  c.calendarID,
		Summary:     intent.Title(),
		Description: description(intent),
		Start:       start,
		End:         start.Add(intent.Duration()),
		TimeZone:    c.timeZone,
		Attendees:   attendees(attendee, intent.Attendees),
	}
	if intent.MeetingType == meeting.TypeInPerson {
		req.Location = strings.TrimSpace(intent.Location)
	}
	if intent.MeetingType == meeting.TypeVirtual {
		req.Conference = true
		req.ConferenceRequestID = "meet-" + id
	}
	return req
}

// Commit books slot for intent with attendee as guest. It never retries;
// every failure is reported in the result.
func (c *Committer) Commit(ctx context.Context, intent meeting.Intent, slot meeting.Slot, attendee string) meeting.BookingResult {
	req := c.BuildRequest(intent, slot, attendee)
	booked := meeting.Slot{Start: req.Start, End: req.End}

	ctx, span := instrumentation.StartStageSpan(ctx, "commit",
		attribute.String(instrumentation.SpanAttrEventID, req.ID))
	defer span.End()

	logger := c.logger.With(logging.Calendar(c.calendarID), logging.UserHash(meeting.EmailAddress(attendee)))

	if c.guard != nil {
		ok, err := c.guard.Acquire(ctx, SlotKey(c.calendarID, req.Start), req.ID, c.guardTTL)
		switch {
		case err != nil:
			// The deterministic event ID still prevents duplicates of this booking.
			logger.WarnContext(ctx, "slot guard unavailable, booking without it", logging.Err(err))
		case !ok:
			c.metrics.RecordSlotGuardConflict(ctx, c.calendarID)
			logger.InfoContext(ctx, "slot held by another booking", slog.Time("start", req.Start))
			span.SetAttributes(attribute.String(instrumentation.SpanAttrOutcome, string(meeting.StatusError)))
			return meeting.BookingResult{Status: meeting.StatusError, Slot: &booked, Message: MessageSlotTaken}
		}
	}

	created, err := c.calendar.CreateEvent(ctx, req)
	if errors.Is(err, ErrEventExists) {
		logger.InfoContext(ctx, "booking already present, reusing event", slog.String("event_id", req.ID))
		instrumentation.SetSpanSuccess(span)
		return meeting.BookingResult{
			Status:  meeting.StatusScheduled,
			EventID: req.ID,
			Slot:    &booked,
			Message: "already scheduled",
		}
	}
	if err != nil {
		instrumentation.SetSpanError(span, err)
		logger.ErrorContext(ctx, "failed to create calendar event", logging.Err(err))
		return meeting.BookingResult{Status: meeting.StatusError, Slot: &booked, Message: err.Error()}
	}

	eventID := created.ID
	if eventID == "" {
		eventID = req.ID
	}
	instrumentation.SetSpanSuccess(span)
	logger.InfoContext(ctx, "meeting booked",
		slog.String("event_id", eventID),
		slog.Time("start", req.Start),
		slog.Bool("conference", req.Conference))

	return meeting.BookingResult{
		Status:   meeting.StatusScheduled,
		EventID:  eventID,
		Slot:     &booked,
		MeetLink: created.MeetLink,
		HTMLLink: created.HTMLLink,
	}
}

func description(intent meeting.Intent) string {
	items := intent.AgendaItems
	if len(items) == 0 {
		items = []string{"Discussion"}
	}
	return "Automatically scheduled meeting\n\nAgenda:\n" + strings.Join(items, "\n")
}

// attendees returns the requester followed by any extra guests, without
// duplicates or empty entries.
func attendees(primary string, extra []string) []string {
	seen := make(map[string]bool, len(extra)+1)
	out := make([]string, 0, len(extra)+1)
	for _, a := range append([]string{primary}, extra...) {
		a = meeting.EmailAddress(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
