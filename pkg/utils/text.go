package utils

import "strings"

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Snippet returns the leading portion of s up to maxLen bytes, cut back to the
// last word boundary so the snippet never ends mid-word. Falls back to a hard
// cut when s contains no spaces in the window.
func Snippet(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
