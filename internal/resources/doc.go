// Package resources exposes read-only assistant state as MCP resources.
package resources
