package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/teemow/execassist/internal/instrumentation"
)

func TestInstrumentedToolHandler(t *testing.T) {
	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)

	tests := []struct {
		name       string
		metrics    *instrumentation.Metrics
		handler    func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		wantErr    error
		wantIsErr  bool
		wantStatus string
	}{
		{
			name: "success",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("ok"), nil
			},
			wantStatus: "status=success",
		},
		{
			name:    "success with metrics",
			metrics: metrics,
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText("ok"), nil
			},
			wantStatus: "status=success",
		},
		{
			name: "error result",
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultError("no slots"), nil
			},
			wantIsErr:  true,
			wantStatus: "status=error",
		},
		{
			name:    "go error",
			metrics: metrics,
			handler: func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, errors.New("boom")
			},
			wantErr:    errors.New("boom"),
			wantStatus: "status=error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			wrapped := InstrumentedToolHandler("find_available_slots", tt.metrics, logger, tt.handler)
			result, err := wrapped(context.Background(), mcp.CallToolRequest{})

			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.Equal(t, tt.wantIsErr, result.IsError)
			}
			assert.Contains(t, buf.String(), "tool=find_available_slots")
			assert.Contains(t, buf.String(), tt.wantStatus)
		})
	}
}
