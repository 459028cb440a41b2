package booking

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"
	"time"
)

var eventIDEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// EventID derives the calendar event ID for a booking. Google Calendar
// accepts IDs made of the characters a-v and 0-9, 5 to 1024 long; the
// result here is always 52 characters.
func EventID(calendarID, attendee string, start time.Time) string {
	h := sha256.New()
	h.Write([]byte(calendarID))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(attendee))))
	h.Write([]byte{0})
	h.Write([]byte(start.UTC().Format(time.RFC3339)))
	return strings.ToLower(eventIDEncoding.EncodeToString(h.Sum(nil)))
}

// SlotKey is the SlotGuard key for a calendar and slot start.
func SlotKey(calendarID string, start time.Time) string {
	return "slot:" + calendarID + ":" + start.UTC().Format(time.RFC3339)
}
