package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"
)

// HeaderValue extracts a header value from a Gmail message.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

// toMessage decodes an API message fetched with format "full".
func toMessage(m *gmail.Message) (Message, error) {
	msg := Message{
		ID:         m.Id,
		ThreadID:   m.ThreadId,
		From:       HeaderValue(m, "From"),
		To:         HeaderValue(m, "To"),
		Subject:    decodeHeader(HeaderValue(m, "Subject")),
		MessageID:  HeaderValue(m, "Message-ID"),
		References: HeaderValue(m, "References"),
	}
	if d := HeaderValue(m, "Date"); d != "" {
		if t, err := mail.ParseDate(d); err == nil {
			msg.Date = t
		}
	}
	if msg.Date.IsZero() && m.InternalDate > 0 {
		msg.Date = time.UnixMilli(m.InternalDate)
	}

	body, err := textBody(m.Payload)
	if err != nil {
		return Message{}, fmt.Errorf("message %s: %w", m.Id, err)
	}
	if body == "" {
		body = m.Snippet
	}
	msg.Body = body
	return msg, nil
}

// textBody returns the first text/plain part of the payload.
func textBody(part *gmail.MessagePart) (string, error) {
	var data string
	walkParts(part, func(p *gmail.MessagePart) {
		if data == "" && p.MimeType == "text/plain" && p.Body != nil && p.Body.Data != "" {
			data = p.Body.Data
		}
	})
	if data == "" {
		return "", nil
	}
	return decodeData(data)
}

func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, sub := range part.Parts {
		walkParts(sub, fn)
	}
}

// decodeData decodes base64url body data. Gmail omits padding on some
// messages, so both forms are accepted.
func decodeData(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return "", fmt.Errorf("failed to decode message body: %w", err)
		}
	}
	return string(decoded), nil
}

func decodeHeader(s string) string {
	dec := new(mime.WordDecoder)
	out, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

// encodeRFC2047 encodes non-ASCII header values.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// buildRaw renders out as an RFC 2822 message.
func buildRaw(out Outgoing) string {
	var b strings.Builder
	if out.From != "" {
		b.WriteString("From: " + out.From + "\r\n")
	}
	b.WriteString("To: " + strings.Join(out.To, ", ") + "\r\n")
	b.WriteString("Subject: " + encodeRFC2047(out.Subject) + "\r\n")
	if out.InReplyTo != "" {
		b.WriteString("In-Reply-To: " + out.InReplyTo + "\r\n")
	}
	if out.References != "" {
		b.WriteString("References: " + out.References + "\r\n")
	}
	if out.IsHTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n\r\n")
	b.WriteString(out.Body)
	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// replySubject prefixes subject with "Re: " unless it already has one.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(subject)), "re:") {
		return subject
	}
	return "Re: " + subject
}
