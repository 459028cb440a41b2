// Package intent turns the free text of an email into a meeting.Intent with
// a single language model call.
//
// Extraction never fails from the caller's point of view: model errors and
// unusable output both yield an intent with IsMeetingRequest set to false.
// ExtractDetailed exposes the underlying reason for logging and metrics.
package intent
