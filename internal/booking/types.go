package booking

import (
	"context"
	"errors"
	"time"
)

// ErrEventExists is returned by a Calendar when an event with the requested
// ID is already present.
var ErrEventExists = errors.New("event already exists")

// EventRequest is a calendar write.
type EventRequest struct {
	// ID is the client-chosen event ID (base32hex, lower case).
	ID          string
	CalendarID  string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
	// Conference requests a video conference link for the event.
	Conference          bool
	ConferenceRequestID string
}

// CreatedEvent is what the calendar reports back after a write.
type CreatedEvent struct {
	ID       string
	HTMLLink string
	MeetLink string
}

// Calendar creates events.
type Calendar interface {
	CreateEvent(ctx context.Context, req EventRequest) (CreatedEvent, error)
}

// SlotGuard is a short-lived lock keyed by calendar and slot start.
// Acquire succeeds when the key is free or already held by holder, which
// makes retries of the same booking idempotent.
type SlotGuard interface {
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
}
