// Package google_tools provides MCP tools that complete the Google OAuth
// flow for installed-app credentials.
package google_tools
