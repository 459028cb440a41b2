package activity

import (
	"context"
	"time"
)

// Type identifies what a record describes.
type Type string

const (
	TypeMeetingScheduled Type = "meeting_scheduled"
	TypeNoAvailability   Type = "no_availability"
	TypeBookingError     Type = "booking_error"
	TypeRequestError     Type = "request_error"
	TypeUrgentEmail      Type = "urgent_email"
	TypeAutoResponse     Type = "auto_response"
	TypeEmailsProcessed  Type = "emails_processed"
)

// Collection is the table or collection name records are stored in.
const Collection = "activities"

// Record is one activity log entry.
type Record struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Store persists records.
type Store interface {
	// Append stores rec. Records are never updated.
	Append(ctx context.Context, rec Record) error
	// Between returns records with from <= Timestamp < to, oldest first.
	Between(ctx context.Context, from, to time.Time) ([]Record, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	// Name identifies the backend in logs and metrics.
	Name() string
	Close() error
}
