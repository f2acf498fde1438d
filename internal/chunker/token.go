package chunker

import "strings"

// EstimateTokens approximates a token count at 1.33 tokens per
// whitespace-separated word, with a floor of 1 for non-empty text.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		if text == "" {
			return 0
		}
		return 1
	}
	return max(int(float64(words)*1.33), 1)
}
