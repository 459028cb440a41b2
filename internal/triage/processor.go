package triage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/execassist/internal/activity"
	"github.com/teemow/execassist/internal/assistant"
	"github.com/teemow/execassist/internal/gmail"
	"github.com/teemow/execassist/internal/llm"
	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/meeting"
	"github.com/teemow/execassist/internal/notify"
)

// Mailbox is the part of the Gmail client the processor needs.
type Mailbox interface {
	ListUnread(ctx context.Context, query string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (gmail.Message, error)
	MarkRead(ctx context.Context, id string) error
	Reply(ctx context.Context, original gmail.Message, body string) (string, error)
}

// Scheduler runs the meeting pipeline.
type Scheduler interface {
	ScheduleMeeting(ctx context.Context, req assistant.Request) assistant.Outcome
}

// EmailClassifier labels an email body.
type EmailClassifier interface {
	Classify(ctx context.Context, body string) Classification
}

// ProcessorConfig holds the collaborators of a Processor.
type ProcessorConfig struct {
	Mailbox    Mailbox
	Classifier EmailClassifier
	Scheduler  Scheduler
	// Model writes auto responses.
	Model    llm.Completer
	Alerter  notify.Alerter
	Activity *activity.Log
	// Query and MaxMessages default to the gmail package defaults.
	Query       string
	MaxMessages int64
	Clock       func() time.Time
	Logger      *slog.Logger
}

// Processor handles one pass over the inbox at a time.
type Processor struct {
	mailbox    Mailbox
	classifier EmailClassifier
	scheduler  Scheduler
	model      llm.Completer
	alerter    notify.Alerter
	activity   *activity.Log
	query      string
	max        int64
	clock      func() time.Time
	logger     *slog.Logger
}

// Report counts what one inbox pass did.
type Report struct {
	Processed       int       `json:"processed_emails"`
	MeetingRequests int       `json:"meeting_requests_handled"`
	Urgent          int       `json:"urgent_emails"`
	AutoResponses   int       `json:"auto_responses"`
	Failed          int       `json:"failed"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewProcessor creates a Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Alerter == nil {
		cfg.Alerter = notify.NopAlerter{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Query == "" {
		cfg.Query = gmail.DefaultInboxQuery
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = gmail.DefaultMaxResults
	}
	if cfg.Activity == nil {
		cfg.Activity = activity.NewLog(activity.NewMemoryStore(), cfg.Logger, nil)
	}
	return &Processor{
		mailbox:    cfg.Mailbox,
		classifier: cfg.Classifier,
		scheduler:  cfg.Scheduler,
		model:      cfg.Model,
		alerter:    cfg.Alerter,
		activity:   cfg.Activity,
		query:      cfg.Query,
		max:        cfg.MaxMessages,
		clock:      cfg.Clock,
		logger:     logging.WithComponent(cfg.Logger, "triage"),
	}
}

// ProcessInbox handles every unread message matching the configured query.
// Failures of single messages are logged and counted; only a failure to
// list the inbox is returned.
func (p *Processor) ProcessInbox(ctx context.Context) (Report, error) {
	logger := logging.WithOperation(p.logger, "process_inbox")

	ids, err := p.mailbox.ListUnread(ctx, p.query, p.max)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list unread mail: %w", err)
	}

	var report Report
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.handle(ctx, id, &report); err != nil {
			report.Failed++
			logger.ErrorContext(ctx, "failed to process message", slog.String("message_id", id), logging.Err(err))
			continue
		}
		report.Processed++
	}
	report.Timestamp = p.clock().UTC()

	p.activity.Add(ctx, activity.TypeEmailsProcessed, map[string]interface{}{
		"processed_emails":         report.Processed,
		"meeting_requests_handled": report.MeetingRequests,
		"urgent_emails":            report.Urgent,
		"auto_responses":           report.AutoResponses,
		"failed":                   report.Failed,
	})
	logger.InfoContext(ctx, "inbox processed",
		slog.Int("processed", report.Processed),
		slog.Int("meetings", report.MeetingRequests),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (p *Processor) handle(ctx context.Context, id string, report *Report) error {
	msg, err := p.mailbox.GetMessage(ctx, id)
	if err != nil {
		return err
	}

	cls := p.classifier.Classify(ctx, msg.Body)
	switch {
	case cls.Type == KindMeetingRequest:
		out := p.scheduler.ScheduleMeeting(ctx, assistant.Request{Sender: msg.From, Subject: msg.Subject, Body: msg.Body})
		if out.Status == assistant.StatusScheduled {
			report.MeetingRequests++
		}
	case cls.Priority == PriorityHigh:
		p.urgent(ctx, msg, cls)
		report.Urgent++
	case cls.CanAutoRespond:
		if p.autoRespond(ctx, msg, cls) {
			report.AutoResponses++
		}
	}

	return p.mailbox.MarkRead(ctx, id)
}

func (p *Processor) urgent(ctx context.Context, msg gmail.Message, cls Classification) {
	p.activity.Add(ctx, activity.TypeUrgentEmail, map[string]interface{}{
		"sender":         meeting.EmailAddress(msg.From),
		"subject":        msg.Subject,
		"classification": classificationPayload(cls),
	})

	alert := notify.Alert{
		Subject: "Urgent email: " + msg.Subject,
		Message: fmt.Sprintf("From: %s\nSubject: %s", msg.From, msg.Subject),
	}
	if len(cls.ActionItems) > 0 {
		alert.Message += "\nAction items:\n- " + strings.Join(cls.ActionItems, "\n- ")
	}
	if err := p.alerter.Alert(ctx, alert); err != nil {
		p.logger.ErrorContext(ctx, "failed to send urgent alert", logging.Err(err))
	}
}

const autoResponsePrompt = `Generate a professional auto-response email.

Original email: %s
Classification: type %s, priority %s, topics %s

The response should acknowledge the message and provide helpful information or next steps.
Be professional and courteous and stay under 100 words. If it is a question, provide a helpful
answer or indicate when they will get a full response. Return only the email body.`

func (p *Processor) autoRespond(ctx context.Context, msg gmail.Message, cls Classification) bool {
	if p.model == nil {
		return false
	}
	text, err := p.model.Complete(ctx, fmt.Sprintf(autoResponsePrompt,
		strings.TrimSpace(msg.Body), cls.Type, cls.Priority, strings.Join(cls.KeyTopics, ", ")))
	if err != nil || strings.TrimSpace(text) == "" {
		p.logger.WarnContext(ctx, "auto response generation failed", logging.Err(err))
		return false
	}

	if _, err := p.mailbox.Reply(ctx, msg, strings.TrimSpace(text)); err != nil {
		p.logger.ErrorContext(ctx, "failed to send auto response", logging.Err(err))
		return false
	}

	recipient := meeting.EmailAddress(msg.From)
	p.activity.Add(ctx, activity.TypeAutoResponse, map[string]interface{}{
		"recipient":      recipient,
		"subject":        "Re: " + msg.Subject,
		"classification": classificationPayload(cls),
		"status":         "sent",
	})
	p.logger.InfoContext(ctx, "auto response sent", logging.UserHash(recipient))
	return true
}

func classificationPayload(cls Classification) map[string]interface{} {
	return map[string]interface{}{
		"type":             string(cls.Type),
		"priority":         string(cls.Priority),
		"can_auto_respond": cls.CanAutoRespond,
	}
}
