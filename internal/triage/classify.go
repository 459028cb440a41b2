package triage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/execassist/internal/instrumentation"
	"github.com/teemow/execassist/internal/llm"
	"github.com/teemow/execassist/internal/logging"
)

// Kind is the category of an email.
type Kind string

const (
	KindMeetingRequest Kind = "meeting_request"
	KindQuestion       Kind = "question"
	KindUpdate         Kind = "update"
	KindSpam           Kind = "spam"
	KindNewsletter     Kind = "newsletter"
	KindUrgentRequest  Kind = "urgent_request"
	KindUnknown        Kind = "unknown"
)

// Priority ranks how soon an email needs attention.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Classification is the model's reading of an email.
type Classification struct {
	Type            Kind     `json:"type"`
	Priority        Priority `json:"priority"`
	Sentiment       string   `json:"sentiment,omitempty"`
	CanAutoRespond  bool     `json:"can_auto_respond"`
	ActionItems     []string `json:"action_items,omitempty"`
	ResponseUrgency string   `json:"response_urgency,omitempty"`
	KeyTopics       []string `json:"key_topics,omitempty"`
}

// Fallback is used whenever classification fails.
func Fallback() Classification {
	return Classification{Type: KindUnknown, Priority: PriorityMedium, CanAutoRespond: false}
}

const classificationSchemaSource = `{
  "type": "object",
  "required": ["type", "priority", "can_auto_respond"],
  "properties": {
    "type": {"enum": ["meeting_request", "question", "update", "spam", "newsletter", "urgent_request", "unknown"]},
    "priority": {"enum": ["high", "medium", "low"]},
    "sentiment": {"type": "string"},
    "can_auto_respond": {"type": "boolean"},
    "action_items": {"type": "array", "items": {"type": "string"}},
    "response_urgency": {"type": "string"},
    "key_topics": {"type": "array", "items": {"type": "string"}}
  }
}`

var classificationSchema = llm.MustCompileSchema("email-classification", classificationSchemaSource)

const classificationPrompt = `Classify this email and determine appropriate actions. Return JSON only.

Email: %s

Classify:
{
  "type": "meeting_request" | "question" | "update" | "spam" | "newsletter" | "urgent_request",
  "priority": "high" | "medium" | "low",
  "sentiment": "positive" | "neutral" | "negative",
  "can_auto_respond": true or false,
  "action_items": ["item1", "item2"],
  "response_urgency": "immediate" | "within_day" | "within_week",
  "key_topics": ["topic1", "topic2"]
}`

// ParseClassification decodes model output into a Classification.
func ParseClassification(output string) (Classification, error) {
	obj, err := llm.DecodeObject(output)
	if err != nil {
		return Fallback(), err
	}
	for _, key := range []string{"type", "priority", "sentiment", "response_urgency"} {
		if s, ok := obj[key].(string); ok {
			obj[key] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
		}
	}
	for key, v := range obj {
		if v == nil {
			delete(obj, key)
		}
	}
	if s, ok := obj["can_auto_respond"].(string); ok {
		obj["can_auto_respond"] = strings.EqualFold(strings.TrimSpace(s), "true")
	}

	var c Classification
	if err := llm.Validate(classificationSchema, obj, &c); err != nil {
		return Fallback(), err
	}
	return c, nil
}

// Classifier labels emails with the language model.
type Classifier struct {
	model  llm.Completer
	logger *slog.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(model llm.Completer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{model: model, logger: logging.WithComponent(logger, "triage")}
}

// Classify never fails; problems yield Fallback.
func (c *Classifier) Classify(ctx context.Context, body string) Classification {
	ctx, span := instrumentation.StartStageSpan(ctx, "classify")
	defer span.End()

	output, err := c.model.Complete(ctx, fmt.Sprintf(classificationPrompt, strings.TrimSpace(body)))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.WarnContext(ctx, "classification failed", logging.Err(err))
		return Fallback()
	}

	cls, err := ParseClassification(output)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.WarnContext(ctx, "unparseable classification", logging.Err(err))
		return Fallback()
	}
	instrumentation.SetSpanSuccess(span)
	return cls
}
