package availability

import (
	"time"

	"github.com/teemow/execassist/internal/meeting"
)

// DefaultLocation is the business time zone used when none is configured.
const DefaultLocation = "America/New_York"

// Options tunes the slot search. The zero value is not usable directly;
// start from DefaultOptions.
type Options struct {
	// Location is the time zone business hours are evaluated in.
	Location *time.Location
	// OpenHour and CloseHour bound the business day, [OpenHour, CloseHour).
	OpenHour  int
	CloseHour int
	// Step is the spacing between candidate start times.
	Step time.Duration
	// MaxSlots caps the number of slots returned.
	MaxSlots int
}

// DefaultOptions returns 9:00 to 17:00 in America/New_York, 30 minute steps
// and at most five slots. If the zone database is unavailable UTC is used.
func DefaultOptions() Options {
	loc, err := time.LoadLocation(DefaultLocation)
	if err != nil {
		loc = time.UTC
	}
	return Options{
		Location:  loc,
		OpenHour:  9,
		CloseHour: 17,
		Step:      30 * time.Minute,
		MaxSlots:  5,
	}
}

func (o Options) normalized() Options {
	def := Options{OpenHour: 9, CloseHour: 17, Step: 30 * time.Minute, MaxSlots: 5}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.OpenHour < 0 || o.CloseHour > 24 || o.OpenHour >= o.CloseHour {
		o.OpenHour, o.CloseHour = def.OpenHour, def.CloseHour
	}
	if o.Step <= 0 {
		o.Step = def.Step
	}
	if o.MaxSlots <= 0 {
		o.MaxSlots = def.MaxSlots
	}
	return o
}

// WindowDays returns how many days ahead a request of the given urgency may
// be scheduled. Unknown levels are treated as medium.
func WindowDays(u meeting.Urgency) int {
	switch u {
	case meeting.UrgencyHigh:
		return 3
	case meeting.UrgencyLow:
		return 14
	default:
		return 7
	}
}

// Window returns the search range for urgency relative to now: from now
// truncated to the top of the hour in the business zone, WindowDays later.
func (o Options) Window(urgency meeting.Urgency, now time.Time) (time.Time, time.Time) {
	o = o.normalized()
	local := now.In(o.Location)
	start := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, o.Location)
	end := start.Add(time.Duration(WindowDays(urgency)) * 24 * time.Hour)
	return start, end
}

// FindSlots returns up to MaxSlots free slots of durationMinutes within the
// urgency window, earliest first. A non-positive duration uses the default
// meeting length. The result is never nil.
func FindSlots(durationMinutes int, urgency meeting.Urgency, busy []meeting.BusyInterval, now time.Time, opts Options) []meeting.Slot {
	opts = opts.normalized()
	length := meeting.Intent{DurationMinutes: durationMinutes}.Duration()
	start, end := opts.Window(urgency, now)

	slots := make([]meeting.Slot, 0, opts.MaxSlots)
	for t := start; t.Before(end) && len(slots) < opts.MaxSlots; t = t.Add(opts.Step) {
		if t.Before(now) {
			continue
		}
		if !opts.withinBusinessHours(t, length) {
			continue
		}
		slotEnd := t.Add(length)
		if conflicts(busy, t, slotEnd) {
			continue
		}
		slots = append(slots, meeting.Slot{Start: t, End: slotEnd})
	}
	return slots
}

// withinBusinessHours reports whether [t, t+length) lies on a weekday between
// opening and closing time of the same local day.
func (o Options) withinBusinessHours(t time.Time, length time.Duration) bool {
	local := t.In(o.Location)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if local.Hour() < o.OpenHour || local.Hour() >= o.CloseHour {
		return false
	}
	closing := time.Date(local.Year(), local.Month(), local.Day(), o.CloseHour, 0, 0, 0, o.Location)
	return !t.Add(length).After(closing)
}

func conflicts(busy []meeting.BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}
