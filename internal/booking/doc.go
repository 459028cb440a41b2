// Package booking commits a chosen slot to the calendar.
//
// Each booking has a deterministic event ID derived from the calendar, the
// attendee and the slot start, so replaying the same request can never
// create a second event: the calendar rejects the duplicate ID and the
// committer reports the original booking. Concurrent requests for the same
// slot are serialised through a SlotGuard before the write.
package booking
