package notify

import (
	"context"
	"fmt"

	"github.com/teemow/execassist/internal/gmail"
)

type gmailSender interface {
	Send(ctx context.Context, out gmail.Outgoing) (string, error)
}

// GmailMailer sends through the Gmail API.
type GmailMailer struct {
	client gmailSender
}

// NewGmailMailer creates a Mailer backed by client.
func NewGmailMailer(client gmailSender) *GmailMailer {
	return &GmailMailer{client: client}
}

// Send implements Mailer.
func (m *GmailMailer) Send(ctx context.Context, email Email) error {
	if err := email.validate(); err != nil {
		return err
	}
	if _, err := m.client.Send(ctx, gmail.Outgoing{
		To:      email.To,
		Subject: email.Subject,
		Body:    email.Body,
	}); err != nil {
		return fmt.Errorf("gmail: %w", err)
	}
	return nil
}
