package llm

import "strings"

// CountTokens gives a rough token count: whitespace-delimited words, or a
// character heuristic for text without spaces.
func CountTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	if n := len(text) / 4; n > words {
		return n
	}
	return words
}

// CountMessageTokens sums CountTokens over every message.
func CountMessageTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += CountTokens(m.Content)
	}
	return total
}
