package meeting

import (
	"net/mail"
	"strings"
)

// EmailAddress returns the bare address from a header value such as
// "Jane Doe <jane@example.com>". Values that do not parse are returned
// trimmed, with any angle brackets removed.
func EmailAddress(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	if i := strings.LastIndexByte(from, '<'); i >= 0 {
		if j := strings.IndexByte(from[i:], '>'); j > 0 {
			return strings.TrimSpace(from[i+1 : i+j])
		}
	}
	return from
}
