// Package common provides shared helpers for MCP tool implementations:
// instrumentation of handlers and argument and result conversion.
package common
