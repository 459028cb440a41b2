package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/llm"
	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/meeting"
)

var (
	// ErrModelUnavailable wraps failures of the completion call itself.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrMalformedOutput wraps output that could not be turned into an intent.
	ErrMalformedOutput = errors.New("malformed extraction output")
)

const promptTemplate = `Analyze this email and extract meeting information. Return JSON only.

Email content:
%s

Respond with exactly this shape:
{
  "is_meeting_request": true or false,
  "subject": "meeting topic",
  "duration_minutes": estimated length in minutes (default 30),
  "urgency": "high" | "medium" | "low",
  "preferred_time_hints": ["Monday morning", "next week"],
  "attendees": ["email@domain.com"],
  "meeting_type": "in_person" | "virtual" | "phone",
  "location": "if mentioned",
  "agenda_items": ["item1", "item2"]
}

If the email is not a meeting request, return {"is_meeting_request": false}`

// Prompt renders the extraction instruction for an email body.
func Prompt(emailBody string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(emailBody))
}

// Parse converts raw model output into an intent. Defaults are applied for
// a missing duration or urgency; anything that does not fit the intent
// schema is reported as ErrMalformedOutput.
func Parse(output string) (meeting.Intent, error) {
	obj, err := llm.DecodeObject(output)
	if err != nil {
		return meeting.NotAMeeting(), fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}

	normalize(obj)

	isMeeting, ok := obj["is_meeting_request"].(bool)
	if !ok {
		return meeting.NotAMeeting(), fmt.Errorf("%w: is_meeting_request missing or not a boolean", ErrMalformedOutput)
	}
	if !isMeeting {
		return meeting.NotAMeeting(), nil
	}

	applyDefaults(obj)

	var out meeting.Intent
	if err := llm.Validate(intentSchema, obj, &out); err != nil {
		return meeting.NotAMeeting(), fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	return out, nil
}

// Extractor derives meeting intents from email bodies.
type Extractor struct {
	model  llm.Completer
	logger *slog.Logger
}

// NewExtractor creates an Extractor using model for completions.
func NewExtractor(model llm.Completer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		model:  model,
		logger: logging.WithComponent(logger, "intent"),
	}
}

// Extract returns the meeting intent of emailBody. It never fails: any
// problem yields an intent with IsMeetingRequest false.
func (e *Extractor) Extract(ctx context.Context, emailBody string) meeting.Intent {
	intent, err := e.ExtractDetailed(ctx, emailBody)
	if err != nil {
		e.logger.WarnContext(ctx, "meeting extraction degraded to not-a-meeting", logging.Err(err))
	}
	return intent
}

// ExtractDetailed is Extract with the degradation reason exposed. The
// returned intent is always usable, even when err is non-nil.
func (e *Extractor) ExtractDetailed(ctx context.Context, emailBody string) (meeting.Intent, error) {
	ctx, span := instrumentation.StartStageSpan(ctx, "extract")
	defer span.End()

	output, err := e.model.Complete(ctx, Prompt(emailBody))
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		instrumentation.SetSpanError(span, err)
		return meeting.NotAMeeting(), err
	}

	intent, err := Parse(output)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		e.logger.DebugContext(ctx, "unparseable extraction output", slog.Int("output_len", len(output)))
		return intent, err
	}

	instrumentation.SetSpanSuccess(span)
	return intent, nil
}
