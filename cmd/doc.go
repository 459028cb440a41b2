// Package cmd implements the command-line interface for execassist.
//
// This package provides the following commands:
//   - serve: Start the HTTP API and the Prometheus metrics server
//   - mcp: Start the MCP server on stdio for AI assistants
//   - schedule: Run the scheduling pipeline once for an email
//   - availability: List free meeting slots
//   - summary: Print the activity summary of one day
//   - inbox: Triage unread mail once
//   - auth: Authorize Gmail and Calendar access with OAuth client credentials
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Every command except version and generate-docs loads the configuration
// from flags, EXECASSIST_* environment variables, .env and an optional
// YAML file before it runs.
package cmd
