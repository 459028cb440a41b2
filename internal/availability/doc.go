// Package availability computes free meeting slots inside business hours.
//
// FindSlots is a pure function of (duration, urgency, busy intervals, now):
// it walks the urgency window in fixed steps, keeps weekday candidates that
// fit entirely between opening and closing time and overlap no busy
// interval, and stops at the first MaxSlots matches. Engine wraps it with a
// BusySource lookup and degrades to an empty result when the calendar
// cannot be read.
package availability
