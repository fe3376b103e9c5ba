// Package sanitize provides input hygiene for user-generated journal text.
// Uses bluemonday to strip all HTML from student messages before they are
// sent to the AI provider or stored, so transcripts replayed into a browser
// dashboard can never carry script content.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for sanitizing journal text.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first
// call. StrictPolicy strips every tag -- journal entries are plain text.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all HTML from a student message and collapses surrounding
// whitespace. bluemonday entity-escapes the remaining text for HTML output;
// we unescape it back because transcripts are stored and served as plain
// text, not markup.
//
// This MUST be called on all user-provided text before it reaches the
// database or the coach gateway.
func Text(input string) string {
	if input == "" {
		return ""
	}
	cleaned := getPolicy().Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
