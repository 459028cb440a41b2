package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/execassist/internal/activity"
	"github.com/teemow/execassist/internal/assistant"
	"github.com/teemow/execassist/internal/gmail"
	"github.com/teemow/execassist/internal/llm"
	"github.com/teemow/execassist/internal/notify"
)

type fakeMailbox struct {
	ids      []string
	listErr  error
	messages map[string]gmail.Message
	read     []string
	replies  map[string]string
	query    string
	max      int64
}

func (f *fakeMailbox) ListUnread(_ context.Context, query string, max int64) ([]string, error) {
	f.query, f.max = query, max
	return f.ids, f.listErr
}

func (f *fakeMailbox) GetMessage(_ context.Context, id string) (gmail.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return gmail.Message{}, errors.New("not found")
	}
	return m, nil
}

func (f *fakeMailbox) MarkRead(_ context.Context, id string) error {
	f.read = append(f.read, id)
	return nil
}

func (f *fakeMailbox) Reply(_ context.Context, original gmail.Message, body string) (string, error) {
	if f.replies == nil {
		f.replies = map[string]string{}
	}
	f.replies[original.ID] = body
	return "r-" + original.ID, nil
}

type labelClassifier map[string]Classification

func (l labelClassifier) Classify(_ context.Context, body string) Classification {
	if c, ok := l[body]; ok {
		return c
	}
	return Fallback()
}

type fakeScheduler struct {
	requests []assistant.Request
	status   assistant.Status
}

func (f *fakeScheduler) ScheduleMeeting(_ context.Context, req assistant.Request) assistant.Outcome {
	f.requests = append(f.requests, req)
	return assistant.Outcome{Status: f.status}
}

type fakeAlerter struct {
	alerts []notify.Alert
	err    error
}

func (f *fakeAlerter) Alert(_ context.Context, a notify.Alert) error {
	f.alerts = append(f.alerts, a)
	return f.err
}

func inbox() *fakeMailbox {
	return &fakeMailbox{
		ids: []string{"meet", "urgent", "question", "newsletter", "broken"},
		messages: map[string]gmail.Message{
			"meet":       {ID: "meet", From: "Jane <jane@example.com>", Subject: "Sync", Body: "meet body"},
			"urgent":     {ID: "urgent", From: "ops@example.com", Subject: "Outage", Body: "urgent body"},
			"question":   {ID: "question", From: "bob@example.com", Subject: "Pricing", Body: "question body"},
			"newsletter": {ID: "newsletter", From: "news@example.com", Subject: "Weekly", Body: "news body"},
		},
	}
}

var labels = labelClassifier{
	"meet body":     {Type: KindMeetingRequest, Priority: PriorityHigh},
	"urgent body":   {Type: KindUrgentRequest, Priority: PriorityHigh, ActionItems: []string{"call back"}},
	"question body": {Type: KindQuestion, Priority: PriorityLow, CanAutoRespond: true},
	"news body":     {Type: KindNewsletter, Priority: PriorityLow},
}

func TestProcessInbox(t *testing.T) {
	mailbox := inbox()
	scheduler := &fakeScheduler{status: assistant.StatusScheduled}
	alerter := &fakeAlerter{}
	store := activity.NewMemoryStore()
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

	p := NewProcessor(ProcessorConfig{
		Mailbox:    mailbox,
		Classifier: labels,
		Scheduler:  scheduler,
		Model: llm.CompleterFunc(func(context.Context, string) (string, error) {
			return "Thanks, we will get back to you by Friday.", nil
		}),
		Alerter:  alerter,
		Activity: activity.NewLog(store, nil, nil),
		Clock:    func() time.Time { return now },
	})

	report, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)

	assert.Equal(t, gmail.DefaultInboxQuery, mailbox.query)
	assert.Equal(t, int64(gmail.DefaultMaxResults), mailbox.max)
	assert.Equal(t, Report{Processed: 4, MeetingRequests: 1, Urgent: 1, AutoResponses: 1, Failed: 1, Timestamp: now}, report)
	assert.Equal(t, []string{"meet", "urgent", "question", "newsletter"}, mailbox.read)

	require.Len(t, scheduler.requests, 1)
	assert.Equal(t, assistant.Request{Sender: "Jane <jane@example.com>", Subject: "Sync", Body: "meet body"}, scheduler.requests[0])

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, "Urgent email: Outage", alerter.alerts[0].Subject)
	assert.Contains(t, alerter.alerts[0].Message, "- call back")

	assert.Equal(t, map[string]string{"question": "Thanks, we will get back to you by Friday."}, mailbox.replies)

	recs, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	types := map[activity.Type]int{}
	for _, r := range recs {
		types[r.Type]++
	}
	assert.Equal(t, map[activity.Type]int{
		activity.TypeUrgentEmail:     1,
		activity.TypeAutoResponse:    1,
		activity.TypeEmailsProcessed: 1,
	}, types)
}

func TestProcessInbox_DegradedCollaborators(t *testing.T) {
	mailbox := inbox()
	p := NewProcessor(ProcessorConfig{
		Mailbox:    mailbox,
		Classifier: labels,
		Scheduler:  &fakeScheduler{status: assistant.StatusNoAvailability},
		Model: llm.CompleterFunc(func(context.Context, string) (string, error) {
			return "", errors.New("model down")
		}),
		Alerter: &fakeAlerter{err: errors.New("sns throttled")},
	})

	report, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Processed)
	assert.Zero(t, report.MeetingRequests)
	assert.Equal(t, 1, report.Urgent)
	assert.Zero(t, report.AutoResponses)
	assert.Empty(t, mailbox.replies)
}

func TestProcessInbox_ListFailure(t *testing.T) {
	p := NewProcessor(ProcessorConfig{
		Mailbox:    &fakeMailbox{listErr: errors.New("401 unauthorized")},
		Classifier: labels,
		Scheduler:  &fakeScheduler{},
	})

	_, err := p.ProcessInbox(context.Background())
	assert.ErrorContains(t, err, "401 unauthorized")
}

func TestProcessInbox_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(ProcessorConfig{Mailbox: inbox(), Classifier: labels, Scheduler: &fakeScheduler{}})
	_, err := p.ProcessInbox(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
