package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/teemow/execassist/internal/instrumentation"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash-001"

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures a Gemini completer.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Metrics     *instrumentation.Metrics
}

// Gemini is a Completer backed by the Gemini API.
type Gemini struct {
	models      generator
	model       string
	temperature float32
	metrics     *instrumentation.Metrics
}

// NewGemini creates a Gemini API client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newGemini(client.Models, cfg), nil
}

func newGemini(models generator, cfg GeminiConfig) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Gemini{
		models:      models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		metrics:     cfg.Metrics,
	}
}

// Complete sends prompt as a single user turn and returns the response text.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	ctx, span := instrumentation.StartSpan(ctx, "llm.generate")
	defer span.End()

	var config *genai.GenerateContentConfig
	if g.temperature > 0 {
		config = &genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		g.metrics.RecordLLMRequest(ctx, instrumentation.StatusError, time.Since(start))
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		instrumentation.SetSpanError(span, ErrEmptyResponse)
		g.metrics.RecordLLMRequest(ctx, instrumentation.StatusError, time.Since(start))
		return "", ErrEmptyResponse
	}

	instrumentation.SetSpanSuccess(span)
	g.metrics.RecordLLMRequest(ctx, instrumentation.StatusSuccess, time.Since(start))
	return text, nil
}
