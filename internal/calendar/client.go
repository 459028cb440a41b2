package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/execassist/internal/booking"
	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/meeting"
)

// DefaultCalendarID is the calendar of the authenticated user.
const DefaultCalendarID = "primary"

// Config configures a Client.
type Config struct {
	CalendarID string
	Metrics    *instrumentation.Metrics
}

// Client wraps the Google Calendar service for a single calendar.
type Client struct {
	svc        *calendar.Service
	calendarID string
	metrics    *instrumentation.Metrics
}

// NewClient creates a Calendar client. opts usually carry the credentials
// from the google package.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return NewClientFromService(svc, cfg), nil
}

// NewClientFromService wraps an existing service.
func NewClientFromService(svc *calendar.Service, cfg Config) *Client {
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	return &Client{svc: svc, calendarID: cfg.CalendarID, metrics: cfg.Metrics}
}

// CalendarID returns the calendar this client reads and writes.
func (c *Client) CalendarID() string {
	return c.calendarID
}

func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, time.Since(start))
}

// QueryBusy returns the busy intervals of the calendar between timeMin and
// timeMax.
func (c *Client) QueryBusy(ctx context.Context, timeMin, timeMax time.Time) (busy []meeting.BusyInterval, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "freebusy.query")
	defer span.End()
	start := time.Now()
	defer func() {
		c.observe(ctx, "freebusy.query", start, err)
		if err != nil {
			instrumentation.SetSpanError(span, err)
		}
	}()

	req := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: c.calendarID}},
	}
	resp, err := c.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	cal, ok := resp.Calendars[c.calendarID]
	if !ok {
		return nil, fmt.Errorf("freebusy response has no entry for calendar %s", c.calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("freebusy query for calendar %s failed: %s", c.calendarID, cal.Errors[0].Reason)
	}

	busy = make([]meeting.BusyInterval, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		interval, err := parsePeriod(p)
		if err != nil {
			return nil, err
		}
		busy = append(busy, interval)
	}
	return busy, nil
}

func parsePeriod(p *calendar.TimePeriod) (meeting.BusyInterval, error) {
	start, err := time.Parse(time.RFC3339, p.Start)
	if err != nil {
		return meeting.BusyInterval{}, fmt.Errorf("invalid busy start %q: %w", p.Start, err)
	}
	end, err := time.Parse(time.RFC3339, p.End)
	if err != nil {
		return meeting.BusyInterval{}, fmt.Errorf("invalid busy end %q: %w", p.End, err)
	}
	return meeting.BusyInterval{Start: start, End: end}, nil
}

// CreateEvent inserts the event described by req. Invitations are sent to
// all attendees. An insert that collides with an existing event ID returns
// booking.ErrEventExists.
func (c *Client) CreateEvent(ctx context.Context, req booking.EventRequest) (created booking.CreatedEvent, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, "events.insert",
		attribute.String(instrumentation.SpanAttrEventID, req.ID))
	defer span.End()
	start := time.Now()
	defer func() {
		c.observe(ctx, "events.insert", start, err)
		if err != nil && !errors.Is(err, booking.ErrEventExists) {
			instrumentation.SetSpanError(span, err)
		}
	}()

	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = c.calendarID
	}

	event := toEvent(req)
	call := c.svc.Events.Insert(calendarID, event).SendUpdates("all").Context(ctx)
	if event.ConferenceData != nil {
		call = call.ConferenceDataVersion(1)
	}

	ev, err := call.Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusConflict {
			return booking.CreatedEvent{ID: req.ID}, booking.ErrEventExists
		}
		return booking.CreatedEvent{}, fmt.Errorf("failed to create event: %w", err)
	}

	return booking.CreatedEvent{
		ID:       ev.Id,
		HTMLLink: ev.HtmlLink,
		MeetLink: meetLink(ev),
	}, nil
}

func toEvent(req booking.EventRequest) *calendar.Event {
	event := &calendar.Event{
		Id:          req.ID,
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: req.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: req.TimeZone,
		},
	}

	for _, email := range req.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	if req.Conference {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: req.ConferenceRequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
	}
	return event
}

func meetLink(ev *calendar.Event) string {
	if ev.HangoutLink != "" {
		return ev.HangoutLink
	}
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.Uri
			}
		}
	}
	return ""
}
