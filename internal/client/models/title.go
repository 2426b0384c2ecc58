package models

import "strings"

const (
	// titleMaxLen is the longest generated chat title, in characters.
	titleMaxLen = 50
	// titleMinInput is the shortest opening message a title is derived from.
	titleMinInput = 10
)

// GenerateTitle derives a chat title from the opening message.
//
// The message is trimmed and trailing question marks are stripped. Messages
// shorter than 10 characters (or empty) fall back to the mode's fixed label.
// Text longer than 50 characters is cut at the nearest word boundary at or
// beyond 70% of the maximum, with "..." appended; if no space falls in that
// window the text is cut hard at the maximum.
func GenerateTitle(message string, mode Mode) string {
	text := strings.TrimSpace(message)
	text = strings.TrimRight(text, "?")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) < titleMinInput {
		return mode.DefaultTitle()
	}
	if len(runes) <= titleMaxLen {
		return text
	}

	boundary := titleMaxLen * 7 / 10
	cut := titleMaxLen
	for i := titleMaxLen; i >= boundary; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(runes[:cut])) + "..."
}
