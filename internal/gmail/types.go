package gmail

import "time"

// Message is an inbound email reduced to what the assistant reads.
type Message struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	From       string    `json:"from"`
	To         string    `json:"to,omitempty"`
	Subject    string    `json:"subject"`
	Date       time.Time `json:"date,omitempty"`
	Body       string    `json:"body"`
	MessageID  string    `json:"-"`
	References string    `json:"-"`
}

// Outgoing is an email to send.
type Outgoing struct {
	// From defaults to the client's sender address.
	From    string
	To      []string
	Subject string
	Body    string
	IsHTML  bool

	// Threading, set by Reply.
	ThreadID   string
	InReplyTo  string
	References string
}
