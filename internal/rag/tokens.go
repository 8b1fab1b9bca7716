package rag

import "strings"

// EstimateTokens approximates the token count of text without a tokenizer.
// It averages a character-based guess (~4 chars per token) with a word-based
// guess (~0.75 tokens per word). The result is intentionally rough; callers
// treat their budget checks as conservative.
func EstimateTokens(text string) int {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	normalized := strings.Join(fields, " ")
	charBased := len(normalized) / 4
	wordBased := len(fields) * 3 / 4
	estimated := (charBased + wordBased) / 2
	if estimated < 1 {
		return 1
	}
	return estimated
}
