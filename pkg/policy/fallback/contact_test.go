package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContact(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"coordinator preferred", "Write to admin@cs.ubc.ca or cpsc110-coordinator@cs.ubc.ca.", "cpsc110-coordinator@cs.ubc.ca"},
		{"admin before info", "info@cs.ubc.ca, cs-admin@cs.ubc.ca", "cs-admin@cs.ubc.ca"},
		{"course address", "prof@cs.ubc.ca and course110@cs.ubc.ca", "course110@cs.ubc.ca"},
		{"first address otherwise", "Email prof@cs.ubc.ca.", "prof@cs.ubc.ca"},
		{"none", "No email here.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractContact([]byte(tt.doc)))
		})
	}
}
