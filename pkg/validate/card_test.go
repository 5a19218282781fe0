package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardNumber(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		valid    bool
	}{
		{name: "Plain", raw: "4111111111111111", expected: "4111111111111111", valid: true},
		{name: "Grouped", raw: "4111 1111 1111 1111", expected: "4111111111111111", valid: true},
		{name: "Persian digits with spaces", raw: "۴۱۱۱ ۱۱۱۱ ۱۱۱۱ ۱۱۱۱", expected: "4111111111111111", valid: true},
		{name: "Bad checksum", raw: "4111111111111112", valid: false},
		{name: "Too short", raw: "79927398713", valid: false},
		{name: "Empty", raw: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			number, ok := CardNumber(tt.raw)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.expected, number)
			}
		})
	}
}
