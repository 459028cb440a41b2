// Package logging provides structured logging utilities for execassist.
//
// All packages log through log/slog. This package keeps attribute names
// consistent and makes sure attendee addresses never reach the logs in clear
// text.
//
// # Usage Patterns
//
// Create a logger scoped to a pipeline stage:
//
//	logger := logging.WithComponent(slog.Default(), "booking")
//	logger.Info("event created",
//	    logging.Calendar("primary"),
//	    logging.UserHash(attendee),
//	    logging.Status(logging.StatusSuccess))
package logging
