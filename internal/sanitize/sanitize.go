// Package sanitize provides HTML sanitization for user-generated content.
// Uses bluemonday to strip dangerous HTML (script tags, event handlers,
// javascript: URLs) before content is relayed to other clients or stored.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Chat messages and display names are plain text: every tag is stripped,
// only the text content survives. Lazily initialized via sync.Once so the
// policies are built exactly once.
var (
	strictPolicy *bluemonday.Policy
	strictOnce   sync.Once
)

func getStrictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Text strips all HTML from user input, returning plain text with
// surrounding whitespace trimmed. Used for chat messages and any other
// value that is echoed back to other users' browsers.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(getStrictPolicy().Sanitize(input))
}
