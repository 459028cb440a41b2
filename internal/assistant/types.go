package assistant

import (
	"time"

	"github.com/teemow/execassist/internal/activity"
	"github.com/teemow/execassist/internal/meeting"
)

// Request is an inbound meeting request, usually an email.
type Request struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// Status is the result class of ScheduleMeeting.
type Status string

const (
	StatusScheduled      Status = "scheduled"
	StatusNoAvailability Status = "no_availability"
	StatusNotMeeting     Status = "not_meeting_request"
	StatusError          Status = "error"
)

// Outcome is the result of one pipeline run.
type Outcome struct {
	Status   Status        `json:"status"`
	EventID  string        `json:"event_id,omitempty"`
	Slot     *meeting.Slot `json:"slot,omitempty"`
	Subject  string        `json:"subject,omitempty"`
	MeetLink string        `json:"meet_link,omitempty"`
	HTMLLink string        `json:"html_link,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// Summary is the daily activity report.
type Summary struct {
	Date            string                `json:"date"`
	TotalActivities int                   `json:"total_activities"`
	Counts          map[activity.Type]int `json:"counts"`
	Summary         string                `json:"summary"`
	Activities      []activity.Record     `json:"raw_activities"`
	GeneratedAt     time.Time             `json:"generated_at"`
}
