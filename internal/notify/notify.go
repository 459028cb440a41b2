package notify

import (
	"context"
	"errors"
)

// ErrNoRecipients is returned when an email has no recipient.
var ErrNoRecipients = errors.New("email has no recipients")

// Email is a plain text message.
type Email struct {
	To      []string
	Subject string
	Body    string
}

func (e Email) validate() error {
	if len(e.To) == 0 {
		return ErrNoRecipients
	}
	if e.Subject == "" {
		return errors.New("email subject is required")
	}
	return nil
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Alert is a short urgent notification.
type Alert struct {
	Subject string
	Message string
}

// Alerter publishes alerts.
type Alerter interface {
	Alert(ctx context.Context, alert Alert) error
}

// NopAlerter drops every alert.
type NopAlerter struct{}

// Alert implements Alerter.
func (NopAlerter) Alert(context.Context, Alert) error { return nil }
