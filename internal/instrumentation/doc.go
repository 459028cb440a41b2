// Package instrumentation provides OpenTelemetry metrics and tracing for execassist.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// External calls:
//   - google_api_operations_total / google_api_operation_duration_seconds by service, operation, status
//   - llm_requests_total / llm_request_duration_seconds by status
//
// Scheduling:
//   - meeting_requests_total: Counter of meeting requests by outcome
//   - slot_search_duration_seconds / slots_found: Histograms per urgency
//   - slot_guard_conflicts_total: Bookings rejected by the slot guard
//   - activity_log_writes_total: Activity log appends by store and status
//
// Surfaces:
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds by tool and status
//   - background_tasks_total by task name and status
//
// # Tracing
//
// Spans are created for pipeline stages (pipeline.<stage>), MCP tool
// invocations (tool.<name>) and Google API calls (google.<service>.<operation>).
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordMeetingOutcome(ctx, "scheduled")
package instrumentation
