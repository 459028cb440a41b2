// Package assistant_tools exposes the executive assistant as MCP tools.
//
// Read-only tools (find_available_slots, list_activities, daily_summary) are
// always registered. schedule_meeting and process_inbox create calendar
// events and send mail, so they are left out in read-only mode.
package assistant_tools
