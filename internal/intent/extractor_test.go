package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/execassist/internal/llm"
	"github.com/teemow/execassist/internal/meeting"
)

func staticModel(output string, err error) llm.Completer {
	return llm.CompleterFunc(func(context.Context, string) (string, error) {
		return output, err
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    meeting.Intent
		wantErr bool
	}{
		{
			name: "full intent",
			output: `{"is_meeting_request": true, "subject": "Budget review", "duration_minutes": 45,
				"urgency": "high", "preferred_time_hints": ["Tuesday afternoon"], "meeting_type": "virtual",
				"agenda_items": ["Q3 numbers", "Hiring"], "attendees": ["cfo@example.com"], "location": ""}`,
			want: meeting.Intent{
				IsMeetingRequest:   true,
				Subject:            "Budget review",
				DurationMinutes:    45,
				Urgency:            meeting.UrgencyHigh,
				PreferredTimeHints: []string{"Tuesday afternoon"},
				MeetingType:        meeting.TypeVirtual,
				AgendaItems:        []string{"Q3 numbers", "Hiring"},
				Attendees:          []string{"cfo@example.com"},
			},
		},
		{
			name:   "defaults for missing duration and urgency",
			output: `{"is_meeting_request": true, "subject": "Sync"}`,
			want: meeting.Intent{
				IsMeetingRequest: true,
				Subject:          "Sync",
				DurationMinutes:  30,
				Urgency:          meeting.UrgencyMedium,
			},
		},
		{
			name:   "fenced output with legacy field names",
			output: "```json\n{\"is_meeting_request\": true, \"duration\": 60, \"urgency\": \"LOW\", \"preferred_times\": [\"next week\"], \"meeting_type\": \"in-person\"}\n```",
			want: meeting.Intent{
				IsMeetingRequest:   true,
				DurationMinutes:    60,
				Urgency:            meeting.UrgencyLow,
				PreferredTimeHints: []string{"next week"},
				MeetingType:        meeting.TypeInPerson,
			},
		},
		{
			name:   "string duration and single hint",
			output: `{"is_meeting_request": true, "duration_minutes": "1 hour", "preferred_time_hints": "Friday", "meeting_type": "phone call"}`,
			want: meeting.Intent{
				IsMeetingRequest:   true,
				DurationMinutes:    60,
				Urgency:            meeting.UrgencyMedium,
				PreferredTimeHints: []string{"Friday"},
				MeetingType:        meeting.TypePhone,
			},
		},
		{
			name:   "null fields are ignored",
			output: `{"is_meeting_request": true, "subject": null, "urgency": null, "duration_minutes": null}`,
			want: meeting.Intent{
				IsMeetingRequest: true,
				DurationMinutes:  30,
				Urgency:          meeting.UrgencyMedium,
			},
		},
		{
			name:   "unknown meeting type is dropped",
			output: `{"is_meeting_request": true, "meeting_type": "carrier pigeon"}`,
			want: meeting.Intent{
				IsMeetingRequest: true,
				DurationMinutes:  30,
				Urgency:          meeting.UrgencyMedium,
			},
		},
		{
			name:   "not a meeting ignores other fields",
			output: `{"is_meeting_request": false, "subject": "newsletter", "urgency": "whenever"}`,
			want:   meeting.Intent{},
		},
		{
			name:    "no json at all",
			output:  "I'm sorry, I can't help with that.",
			wantErr: true,
		},
		{
			name:    "truncated json",
			output:  `{"is_meeting_request": true, "subject": "Sy`,
			wantErr: true,
		},
		{
			name:    "missing is_meeting_request",
			output:  `{"subject": "Sync"}`,
			wantErr: true,
		},
		{
			name:    "invalid urgency",
			output:  `{"is_meeting_request": true, "urgency": "yesterday"}`,
			wantErr: true,
		},
		{
			name:    "non-positive duration",
			output:  `{"is_meeting_request": true, "duration_minutes": 0}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.output)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedOutput)
				assert.False(t, got.IsMeetingRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractor_Extract(t *testing.T) {
	var gotPrompt string
	model := llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return `{"is_meeting_request": true, "subject": "Intro call"}`, nil
	})

	intent := NewExtractor(model, nil).Extract(context.Background(), "Can we find 30 minutes next week?")

	assert.True(t, intent.IsMeetingRequest)
	assert.Equal(t, "Intro call", intent.Subject)
	assert.Equal(t, 30, intent.DurationMinutes)
	assert.Equal(t, meeting.UrgencyMedium, intent.Urgency)
	assert.Contains(t, gotPrompt, "Can we find 30 minutes next week?")
	assert.Contains(t, gotPrompt, `"is_meeting_request"`)
}

func TestExtractor_NeverFails(t *testing.T) {
	tests := []struct {
		name    string
		model   llm.Completer
		wantErr error
	}{
		{"model error", staticModel("", errors.New("deadline exceeded")), ErrModelUnavailable},
		{"prose output", staticModel("Sure, let's meet!", nil), ErrMalformedOutput},
		{"empty object", staticModel("{}", nil), ErrMalformedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(tt.model, nil)

			intent := e.Extract(context.Background(), "hello")
			assert.Equal(t, meeting.NotAMeeting(), intent)

			_, err := e.ExtractDetailed(context.Background(), "hello")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt("  body text \n")
	assert.Contains(t, p, "Email content:\nbody text\n")
	assert.Contains(t, p, "Return JSON only")
}
