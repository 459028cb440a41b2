// Package assistant wires the scheduling pipeline together.
//
// ScheduleMeeting runs one inbound request through intent extraction, slot
// search and booking, sends a confirmation to the requester and records the
// outcome in the activity log. Every step degrades to a well-formed Outcome
// so callers never have to interpret transport errors. The package also
// serves the read side used by the HTTP API and MCP tools: availability
// listings, recent activities and the daily summary.
package assistant
