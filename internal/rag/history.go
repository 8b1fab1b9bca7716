package rag

import (
	"github.com/ragline/ragline/internal/model"
)

// DefaultKeepRecent is the number of most recent turns always kept verbatim.
const DefaultKeepRecent = 5

// TruncateHistory selects a subsequence of turns (oldest to newest) that
// fits maxTokens. The last keepRecent turns are kept verbatim regardless of
// cost; when they alone exceed the budget, only they are returned and
// saturated is true so the caller can log it. Older turns are admitted by
// recency, walking backward from the most recent, until the budget runs
// out. Order is preserved.
func TruncateHistory(turns []model.Message, maxTokens, keepRecent int) (kept []model.Message, saturated bool) {
	if len(turns) <= keepRecent {
		return turns, false
	}

	recent := turns[len(turns)-keepRecent:]
	older := turns[:len(turns)-keepRecent]

	recentTokens := 0
	for _, msg := range recent {
		recentTokens += EstimateTokens(msg.Content)
	}
	available := maxTokens - recentTokens
	if available <= 0 {
		return recent, true
	}

	var olderKept []model.Message
	currentTokens := 0
	for i := len(older) - 1; i >= 0; i-- {
		msgTokens := EstimateTokens(older[i].Content)
		if currentTokens+msgTokens > available {
			break
		}
		olderKept = append([]model.Message{older[i]}, olderKept...)
		currentTokens += msgTokens
	}

	return append(olderKept, recent...), false
}
