package meeting

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDurationMinutes is used when the request does not state a length.
const DefaultDurationMinutes = 30

// Urgency controls how far ahead the availability search looks.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ParseUrgency parses an urgency level case-insensitively.
func ParseUrgency(s string) (Urgency, error) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return u, nil
	case "":
		return UrgencyMedium, nil
	default:
		return "", fmt.Errorf("invalid urgency %q: must be high, medium or low", s)
	}
}

// Valid reports whether u is one of the known levels.
func (u Urgency) Valid() bool {
	return u == UrgencyHigh || u == UrgencyMedium || u == UrgencyLow
}

// MeetingType describes how the meeting takes place.
type MeetingType string

const (
	TypeInPerson MeetingType = "in_person"
	TypeVirtual  MeetingType = "virtual"
	TypePhone    MeetingType = "phone"
)

// Intent is the structured form of a meeting request. When IsMeetingRequest
// is false every other field is meaningless.
type Intent struct {
	IsMeetingRequest   bool        `json:"is_meeting_request"`
	Subject            string      `json:"subject,omitempty"`
	DurationMinutes    int         `json:"duration_minutes,omitempty"`
	Urgency            Urgency     `json:"urgency,omitempty"`
	PreferredTimeHints []string    `json:"preferred_time_hints,omitempty"`
	MeetingType        MeetingType `json:"meeting_type,omitempty"`
	AgendaItems        []string    `json:"agenda_items,omitempty"`
	Attendees          []string    `json:"attendees,omitempty"`
	Location           string      `json:"location,omitempty"`
}

// NotAMeeting is the intent returned whenever extraction cannot produce
// a usable result.
func NotAMeeting() Intent {
	return Intent{IsMeetingRequest: false}
}

// Duration returns the meeting length, applying the default for non-positive values.
func (i Intent) Duration() time.Duration {
	if i.DurationMinutes <= 0 {
		return DefaultDurationMinutes * time.Minute
	}
	return time.Duration(i.DurationMinutes) * time.Minute
}

// Title returns the event summary for the intent.
func (i Intent) Title() string {
	if s := strings.TrimSpace(i.Subject); s != "" {
		return s
	}
	return "Meeting"
}

// BusyInterval is an occupied range reported by a calendar. Start is before End.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether [start, end) intersects the interval.
// Touching boundaries do not overlap.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return !(!end.After(b.Start) || !start.Before(b.End))
}

// Slot is a free range long enough for the requested meeting.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewSlot builds a slot starting at start and lasting d.
func NewSlot(start time.Time, d time.Duration) Slot {
	return Slot{Start: start, End: start.Add(d)}
}

// BookingStatus is the terminal state of a booking attempt.
type BookingStatus string

const (
	StatusScheduled      BookingStatus = "scheduled"
	StatusNoAvailability BookingStatus = "no_availability"
	StatusError          BookingStatus = "error"
)

// BookingResult reports what happened to a booking attempt.
type BookingResult struct {
	Status   BookingStatus `json:"status"`
	EventID  string        `json:"event_id,omitempty"`
	Slot     *Slot         `json:"slot,omitempty"`
	Message  string        `json:"message,omitempty"`
	MeetLink string        `json:"meet_link,omitempty"`
	HTMLLink string        `json:"html_link,omitempty"`
}

// Scheduled reports whether the booking produced a calendar event.
func (r BookingResult) Scheduled() bool {
	return r.Status == StatusScheduled
}
