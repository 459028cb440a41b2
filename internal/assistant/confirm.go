package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/meeting"
	"github.com/teemow/execassist/internal/notify"
)

const confirmationPrompt = `Generate a professional meeting confirmation email.

Details:
- Meeting: %s
- Date/Time: %s
- Duration: %d minutes
- Meeting link: %s

The email should confirm that the meeting is scheduled and include the date, time and meeting details.
Keep it professional but friendly and under 150 words. Return only the email body.`

const confirmationFallback = `Hello,

This confirms our meeting "%s" on %s (%d minutes).

Meeting link: %s

Best regards,
Executive Assistant`

const whenLayout = "Monday, January 02 at 03:04 PM"

func (a *Assistant) sendConfirmation(ctx context.Context, attendee string, intent meeting.Intent, result meeting.BookingResult) {
	if a.mailer == nil || result.Slot == nil {
		return
	}

	start := result.Slot.Start.In(a.location)
	when := start.Format(whenLayout)
	link := result.MeetLink
	if link == "" {
		link = "Details in calendar invite"
	}
	minutes := int(result.Slot.End.Sub(result.Slot.Start).Minutes())

	body := a.confirmationBody(ctx, intent.Title(), when, minutes, link)
	email := notify.Email{
		To:      []string{attendee},
		Subject: fmt.Sprintf("Meeting Confirmed: %s - %s", intent.Title(), start.Format("Jan 02")),
		Body:    body,
	}
	if err := a.mailer.Send(ctx, email); err != nil {
		a.logger.ErrorContext(ctx, "failed to send confirmation email",
			logging.UserHash(attendee), logging.Err(err))
		return
	}
	a.logger.InfoContext(ctx, "confirmation email sent", logging.UserHash(attendee))
}

func (a *Assistant) confirmationBody(ctx context.Context, title, when string, minutes int, link string) string {
	if a.model != nil {
		text, err := a.model.Complete(ctx, fmt.Sprintf(confirmationPrompt, title, when, minutes, link))
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			a.logger.WarnContext(ctx, "confirmation text generation failed, using template", logging.Err(err))
		}
	}
	return fmt.Sprintf(confirmationFallback, title, when, minutes, link)
}
