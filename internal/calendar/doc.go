// Package calendar connects the assistant to calendars.
//
// Client talks to the Google Calendar API: it reports busy intervals through
// the freebusy endpoint and inserts bookings with a caller-chosen event ID so
// retried bookings collapse onto one event. ICSSource reads busy intervals
// from an iCalendar feed instead, which is useful for calendars that are only
// published as .ics.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, calendar.Config{CalendarID: "primary"}, opts...)
//	if err != nil {
//	    return err
//	}
//	busy, err := client.QueryBusy(ctx, time.Now(), time.Now().AddDate(0, 0, 7))
package calendar
