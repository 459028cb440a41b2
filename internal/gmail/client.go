package gmail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/execassist/internal/instrumentation"
)

const (
	// DefaultInboxQuery selects unread mail from the last day.
	DefaultInboxQuery = "is:unread newer_than:1d"
	// DefaultMaxResults caps one inbox pass.
	DefaultMaxResults = 50

	me = "me"
)

// Config configures a Client.
type Config struct {
	// From is used as sender address. Empty means the authenticated user.
	From    string
	Metrics *instrumentation.Metrics
}

// Client wraps the Gmail Users service.
type Client struct {
	svc     *gmail.UsersService
	from    string
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client. opts usually carry the credentials from
// the google package.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return NewClientFromService(svc, cfg), nil
}

// NewClientFromService wraps an existing service.
func NewClientFromService(svc *gmail.Service, cfg Config) *Client {
	return &Client{svc: svc.Users, from: cfg.From, metrics: cfg.Metrics}
}

func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
}

// ListUnread returns the IDs of messages matching query, newest first. An
// empty query means DefaultInboxQuery and max <= 0 means DefaultMaxResults.
func (c *Client) ListUnread(ctx context.Context, query string, max int64) (ids []string, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "messages.list")
	defer span.End()
	defer func(start time.Time) {
		c.observe(ctx, "messages.list", start, err)
		if err != nil {
			instrumentation.SetSpanError(span, err)
		}
	}(time.Now())

	if query == "" {
		query = DefaultInboxQuery
	}
	if max <= 0 {
		max = DefaultMaxResults
	}

	res, err := c.svc.Messages.List(me).Q(query).MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	ids = make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches and decodes one message.
func (c *Client) GetMessage(ctx context.Context, id string) (msg Message, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "messages.get")
	defer span.End()
	defer func(start time.Time) {
		c.observe(ctx, "messages.get", start, err)
		if err != nil {
			instrumentation.SetSpanError(span, err)
		}
	}(time.Now())

	m, err := c.svc.Messages.Get(me, id).Format("full").Context(ctx).Do()
	if err != nil {
		return Message{}, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return toMessage(m)
}

// MarkRead removes the UNREAD label from a message.
func (c *Client) MarkRead(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { c.observe(ctx, "messages.modify", start, err) }(time.Now())

	_, err = c.svc.Messages.Modify(me, id, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to mark message %s read: %w", id, err)
	}
	return nil
}

// Send sends out and returns the ID of the sent message.
func (c *Client) Send(ctx context.Context, out Outgoing) (id string, err error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, "messages.send")
	defer span.End()
	defer func(start time.Time) {
		c.observe(ctx, "messages.send", start, err)
		if err != nil {
			instrumentation.SetSpanError(span, err)
		}
	}(time.Now())

	if len(out.To) == 0 {
		return "", errors.New("at least one recipient is required")
	}
	if out.Subject == "" {
		return "", errors.New("subject is required")
	}

	raw := buildRaw(c.withFrom(out))
	sent, err := c.svc.Messages.Send(me, &gmail.Message{Raw: raw, ThreadId: out.ThreadID}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

// Reply answers original in its thread.
func (c *Client) Reply(ctx context.Context, original Message, body string) (string, error) {
	if original.From == "" {
		return "", errors.New("original message has no From header")
	}
	references := original.MessageID
	if original.References != "" {
		references = original.References + " " + original.MessageID
	}
	return c.Send(ctx, Outgoing{
		To:         []string{original.From},
		Subject:    replySubject(original.Subject),
		Body:       body,
		ThreadID:   original.ThreadID,
		InReplyTo:  original.MessageID,
		References: references,
	})
}

func (c *Client) withFrom(out Outgoing) Outgoing {
	if out.From == "" {
		out.From = c.from
	}
	return out
}
