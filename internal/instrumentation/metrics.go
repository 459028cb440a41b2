package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrOutcome   = "outcome"
	attrUrgency   = "urgency"
	attrStore     = "store"
	attrTool      = "tool"
	attrTask      = "task"
	attrCalendar  = "calendar"
)

// Metrics records the process metrics. A zero Metrics (or a nil *Metrics)
// is a valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	llmRequestsTotal   metric.Int64Counter
	llmRequestDuration metric.Float64Histogram

	meetingRequestsTotal metric.Int64Counter
	slotSearchDuration   metric.Float64Histogram
	slotsFound           metric.Int64Histogram
	slotGuardConflicts   metric.Int64Counter

	activityWritesTotal metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	tasksTotal metric.Int64Counter

	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all instruments registered on meter.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.llmRequestsTotal, err = meter.Int64Counter(
		"llm_requests_total",
		metric.WithDescription("Total number of language model completion requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_requests_total counter: %w", err)
	}

	m.llmRequestDuration, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("Language model completion latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_request_duration_seconds histogram: %w", err)
	}

	m.meetingRequestsTotal, err = meter.Int64Counter(
		"meeting_requests_total",
		metric.WithDescription("Meeting requests processed by terminal outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting_requests_total counter: %w", err)
	}

	m.slotSearchDuration, err = meter.Float64Histogram(
		"slot_search_duration_seconds",
		metric.WithDescription("Availability search duration in seconds, including the busy lookup"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot_search_duration_seconds histogram: %w", err)
	}

	m.slotsFound, err = meter.Int64Histogram(
		"slots_found",
		metric.WithDescription("Number of candidate slots returned per search"),
		metric.WithUnit("{slot}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slots_found histogram: %w", err)
	}

	m.slotGuardConflicts, err = meter.Int64Counter(
		"slot_guard_conflicts_total",
		metric.WithDescription("Bookings rejected because another request held the slot"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot_guard_conflicts_total counter: %w", err)
	}

	m.activityWritesTotal, err = meter.Int64Counter(
		"activity_log_writes_total",
		metric.WithDescription("Activity log append attempts by store and status"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity_log_writes_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.tasksTotal, err = meter.Int64Counter(
		"background_tasks_total",
		metric.WithDescription("Background tasks finished by name and status"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create background_tasks_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)

	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records a Google API operation.
//
// Parameters:
//   - service: Google service name (gmail, calendar)
//   - operation: Operation type (freebusy, insert, list, send, modify)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)

	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLLMRequest records one completion request against the language model.
func (m *Metrics) RecordLLMRequest(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.llmRequestsTotal == nil || m.llmRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.llmRequestsTotal.Add(ctx, 1, attrs)
	m.llmRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordMeetingOutcome counts a meeting request by its terminal outcome
// (scheduled, no_availability, not_meeting_request, error).
func (m *Metrics) RecordMeetingOutcome(ctx context.Context, outcome string) {
	if m == nil || m.meetingRequestsTotal == nil {
		return // Instrumentation not initialized
	}

	m.meetingRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// RecordSlotSearch records one availability search.
func (m *Metrics) RecordSlotSearch(ctx context.Context, urgency string, found int, duration time.Duration) {
	if m == nil || m.slotSearchDuration == nil || m.slotsFound == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(attribute.String(attrUrgency, urgency))
	m.slotSearchDuration.Record(ctx, duration.Seconds(), attrs)
	m.slotsFound.Record(ctx, int64(found), attrs)
}

// RecordSlotGuardConflict counts a booking that lost the slot guard.
// The calendar label is only attached when detailed labels are enabled.
func (m *Metrics) RecordSlotGuardConflict(ctx context.Context, calendarID string) {
	if m == nil || m.slotGuardConflicts == nil {
		return // Instrumentation not initialized
	}

	var attrs []attribute.KeyValue
	if m.detailedLabels && calendarID != "" {
		attrs = append(attrs, attribute.String(attrCalendar, calendarID))
	}
	m.slotGuardConflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordActivityWrite records an activity log append attempt.
func (m *Metrics) RecordActivityWrite(ctx context.Context, store, status string) {
	if m == nil || m.activityWritesTotal == nil {
		return // Instrumentation not initialized
	}

	m.activityWritesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStore, store),
		attribute.String(attrStatus, status),
	))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)

	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTask counts a finished background task.
func (m *Metrics) RecordTask(ctx context.Context, name, status string) {
	if m == nil || m.tasksTotal == nil {
		return // Instrumentation not initialized
	}

	m.tasksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrTask, name),
		attribute.String(attrStatus, status),
	))
}
