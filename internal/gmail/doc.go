// Package gmail provides the mailbox side of the assistant.
//
// Client lists recent unread messages, decodes them into Message values with
// a plain text body, marks them read once handled, and sends new messages or
// threaded replies through the Gmail API.
//
// Authentication is handled by the google package; pass its client options to
// NewClient.
package gmail
