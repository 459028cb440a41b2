package google

import (
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// Scopes are the OAuth scopes the assistant needs: calendar read/write for
// availability and bookings, and Gmail modify/send for inbox triage and
// confirmations.
var Scopes = []string{
	calendar.CalendarScope,
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
}
