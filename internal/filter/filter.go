// Package filter is the cheap keyword pre-screen that runs before any
// external call.
package filter

import "strings"

// Matches reports whether text contains any configured trigger keyword,
// case-insensitively. Keywords are literal substrings, so multi-word phrases
// like "test tomorrow" work as written. No side effects.
func Matches(text string, keywords []string) bool {
	t := strings.ToLower(text)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
