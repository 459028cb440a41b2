// Package server exposes the assistant over HTTP.
//
// # Key Components
//
// API serves the JSON endpoints used by schedulers and operators:
//   - POST /schedule-meeting runs one meeting request through the pipeline
//   - POST /process-emails triages the inbox as a background task
//   - GET /tasks/{id} reports background task status
//   - GET /daily-summary, /activities and /calendar/availability are read-only views
//
// ServerContext carries the process lifetime and the list of configured
// services. HealthChecker turns it into Kubernetes liveness and readiness
// probes.
//
// MetricsServer serves Prometheus metrics on a dedicated port, separate from
// application traffic.
package server
