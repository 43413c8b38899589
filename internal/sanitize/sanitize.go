// Package sanitize strips markup from user-generated text. Note titles,
// note bodies, and display names are stored and rendered as plain text by
// the frontend, so anything tag-shaped in them is either an accident or an
// injection attempt -- either way it gets removed before storage.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday strict policy. Initialized once via
// sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		// StrictPolicy strips every element and attribute, leaving text only.
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text sanitizes a user-provided string down to plain text: all HTML
// elements, attributes, and javascript: URLs are removed, surrounding
// whitespace is trimmed.
//
// This MUST be called on all user-provided text before storing it in the
// database.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(getPolicy().Sanitize(input))
}
