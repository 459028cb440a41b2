package assistant

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/execassist/internal/activity"
	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/llm"
	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/meeting"
	"github.com/teemow/execassist/internal/notify"
)

// MessageNoSlots is reported when the urgency window has no free slot.
const MessageNoSlots = "No suitable time slots found"

// MessageNoSender is reported when a meeting request carries no usable
// sender address.
const MessageNoSender = "sender address is required"

// MessageNoCalendar is reported when the assistant runs without calendar
// access.
const MessageNoCalendar = "calendar is not configured"

// IntentExtractor turns an email body into a meeting intent.
type IntentExtractor interface {
	Extract(ctx context.Context, emailBody string) meeting.Intent
}

// SlotFinder lists free slots of the calendar.
type SlotFinder interface {
	Search(ctx context.Context, durationMinutes int, urgency meeting.Urgency) []meeting.Slot
	SearchN(ctx context.Context, durationMinutes int, urgency meeting.Urgency, limit int) []meeting.Slot
}

// Booker writes a booking to the calendar.
type Booker interface {
	Commit(ctx context.Context, intent meeting.Intent, slot meeting.Slot, attendee string) meeting.BookingResult
}

// Config holds the collaborators of an Assistant.
type Config struct {
	Extractor IntentExtractor
	Slots     SlotFinder
	Booker    Booker
	// Model writes confirmations and summaries. Optional.
	Model llm.Completer
	// Mailer sends confirmations. Optional.
	Mailer   notify.Mailer
	Activity *activity.Log
	// Location formats times in confirmations.
	Location *time.Location
	Clock    func() time.Time
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
}

// Assistant runs the scheduling pipeline.
type Assistant struct {
	extractor IntentExtractor
	slots     SlotFinder
	booker    Booker
	model     llm.Completer
	mailer    notify.Mailer
	activity  *activity.Log
	location  *time.Location
	clock     func() time.Time
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// New creates an Assistant.
func New(cfg Config) *Assistant {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Activity == nil {
		cfg.Activity = activity.NewLog(activity.NewMemoryStore(), cfg.Logger, cfg.Metrics)
	}
	return &Assistant{
		extractor: cfg.Extractor,
		slots:     cfg.Slots,
		booker:    cfg.Booker,
		model:     cfg.Model,
		mailer:    cfg.Mailer,
		activity:  cfg.Activity,
		location:  cfg.Location,
		clock:     cfg.Clock,
		logger:    logging.WithComponent(cfg.Logger, "assistant"),
		metrics:   cfg.Metrics,
	}
}

// ScheduleMeeting handles one meeting request end to end.
func (a *Assistant) ScheduleMeeting(ctx context.Context, req Request) (out Outcome) {
	ctx, span := instrumentation.StartSpan(ctx, "assistant.schedule_meeting")
	defer span.End()
	defer func() {
		span.SetAttributes(attribute.String(instrumentation.SpanAttrOutcome, string(out.Status)))
		a.metrics.RecordMeetingOutcome(ctx, string(out.Status))
	}()

	attendee := meeting.EmailAddress(req.Sender)
	logger := logging.WithOperation(a.logger, "schedule_meeting").With(logging.UserHash(attendee))

	intent := a.extractor.Extract(ctx, req.Body)
	if !intent.IsMeetingRequest {
		logger.InfoContext(ctx, "email is not a meeting request")
		return Outcome{Status: StatusNotMeeting, Message: "not a meeting request"}
	}
	if attendee == "" {
		logger.WarnContext(ctx, "meeting request without sender address")
		return a.requestError(ctx, attendee, intent, MessageNoSender)
	}
	if a.slots == nil || a.booker == nil {
		logger.WarnContext(ctx, "meeting request without calendar access")
		return a.requestError(ctx, attendee, intent, MessageNoCalendar)
	}

	slots := a.slots.Search(ctx, intent.DurationMinutes, intent.Urgency)
	if len(slots) == 0 {
		logger.InfoContext(ctx, "no availability", logging.Urgency(string(intent.Urgency)))
		a.activity.Add(ctx, activity.TypeNoAvailability, map[string]interface{}{
			"attendee":         attendee,
			"subject":          intent.Title(),
			"urgency":          string(intent.Urgency),
			"duration_minutes": intent.DurationMinutes,
		})
		return Outcome{Status: StatusNoAvailability, Subject: intent.Title(), Message: MessageNoSlots}
	}

	result := a.booker.Commit(ctx, intent, slots[0], attendee)
	if !result.Scheduled() {
		a.activity.Add(ctx, activity.TypeBookingError, map[string]interface{}{
			"attendee": attendee,
			"subject":  intent.Title(),
			"datetime": slots[0].Start.UTC().Format(time.RFC3339),
			"error":    result.Message,
		})
		return Outcome{Status: StatusError, Subject: intent.Title(), Slot: result.Slot, Message: result.Message}
	}

	a.sendConfirmation(ctx, attendee, intent, result)

	a.activity.Add(ctx, activity.TypeMeetingScheduled, map[string]interface{}{
		"attendee": attendee,
		"subject":  intent.Title(),
		"datetime": result.Slot.Start.UTC().Format(time.RFC3339),
		"event_id": result.EventID,
		"status":   "confirmed",
	})

	return Outcome{
		Status:   StatusScheduled,
		EventID:  result.EventID,
		Slot:     result.Slot,
		Subject:  intent.Title(),
		MeetLink: result.MeetLink,
		HTMLLink: result.HTMLLink,
		Message:  result.Message,
	}
}

// requestError records a meeting request that was rejected before any
// calendar access.
func (a *Assistant) requestError(ctx context.Context, attendee string, intent meeting.Intent, msg string) Outcome {
	a.activity.Add(ctx, activity.TypeRequestError, map[string]interface{}{
		"attendee": attendee,
		"subject":  intent.Title(),
		"error":    msg,
	})
	return Outcome{Status: StatusError, Subject: intent.Title(), Message: msg}
}

// Availability lists up to limit free slots for a meeting of
// durationMinutes. A non-positive limit uses the engine default.
func (a *Assistant) Availability(ctx context.Context, durationMinutes int, urgency meeting.Urgency, limit int) []meeting.Slot {
	if a.slots == nil {
		return nil
	}
	if limit <= 0 {
		return a.slots.Search(ctx, durationMinutes, urgency)
	}
	return a.slots.SearchN(ctx, durationMinutes, urgency, limit)
}

// RecentActivities returns the newest activity records.
func (a *Assistant) RecentActivities(ctx context.Context, limit int) ([]activity.Record, error) {
	return a.activity.Recent(ctx, limit)
}

// Activity returns the activity log the assistant writes to.
func (a *Assistant) Activity() *activity.Log {
	return a.activity
}
