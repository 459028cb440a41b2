package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane@example.com", "jane@example.com"},
		{"Jane Doe <jane@example.com>", "jane@example.com"},
		{`"Doe, Jane" <jane@example.com>`, "jane@example.com"},
		{"  <jane@example.com>  ", "jane@example.com"},
		{"", ""},
		{"not an address", "not an address"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EmailAddress(tt.in))
		})
	}
}
