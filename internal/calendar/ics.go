package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/teemow/execassist/internal/meeting"
)

// ICSSource reads busy intervals from an iCalendar feed.
type ICSSource struct {
	URL    string
	Client *http.Client
	// Location resolves floating times. Defaults to UTC.
	Location *time.Location
}

// QueryBusy fetches the feed and returns the events overlapping
// [timeMin, timeMax). Cancelled and transparent events are ignored and
// recurring events are expanded.
func (s *ICSSource) QueryBusy(ctx context.Context, timeMin, timeMax time.Time) ([]meeting.BusyInterval, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid ics url: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ics feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch ics feed: unexpected status %d", resp.StatusCode)
	}

	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return ParseBusy(resp.Body, timeMin, timeMax, loc)
}

// ParseBusy decodes iCalendar data and returns the busy intervals that
// overlap [timeMin, timeMax).
func ParseBusy(r io.Reader, timeMin, timeMax time.Time, loc *time.Location) ([]meeting.BusyInterval, error) {
	dec := ical.NewDecoder(r)
	busy := make([]meeting.BusyInterval, 0)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode ics feed: %w", err)
		}

		for _, ev := range cal.Events() {
			if !blocksTime(ev) {
				continue
			}
			intervals, err := eventIntervals(ev, timeMin, timeMax, loc)
			if err != nil {
				return nil, err
			}
			busy = append(busy, intervals...)
		}
	}
	return busy, nil
}

func blocksTime(ev ical.Event) bool {
	if p := ev.Props.Get(ical.PropStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
		return false
	}
	if p := ev.Props.Get(ical.PropTransparency); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return false
	}
	return true
}

func eventIntervals(ev ical.Event, timeMin, timeMax time.Time, loc *time.Location) ([]meeting.BusyInterval, error) {
	start, err := ev.DateTimeStart(loc)
	if err != nil {
		return nil, fmt.Errorf("invalid DTSTART: %w", err)
	}
	end, err := ev.DateTimeEnd(loc)
	if err != nil {
		return nil, fmt.Errorf("invalid DTEND: %w", err)
	}
	if start.IsZero() {
		return nil, nil
	}
	if !end.After(start) {
		end = start
	}
	length := end.Sub(start)

	set, err := ev.RecurrenceSet(loc)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule: %w", err)
	}

	starts := []time.Time{start}
	if set != nil {
		starts = set.Between(timeMin.Add(-length), timeMax, true)
	}

	var out []meeting.BusyInterval
	for _, s := range starts {
		interval := meeting.BusyInterval{Start: s, End: s.Add(length)}
		if interval.End.After(timeMin) && interval.Start.Before(timeMax) {
			out = append(out, interval)
		}
	}
	return out, nil
}
