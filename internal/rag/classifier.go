package rag

import "strings"

// QueryType classifies user intent to drive retrieval breadth.
type QueryType string

const (
	QueryArchitecture QueryType = "architecture"
	QueryCodeGen      QueryType = "code_generation"
	QueryDebug        QueryType = "debugging"
	QueryFeature      QueryType = "feature"
	QuerySimple       QueryType = "simple"
)

// Conversations longer than this default to feature work when no keyword
// matches.
const longConversationThreshold = 5

var architectureKeywords = []string{
	"architecture", "structure", "organization", "entire project",
	"big picture", "global", "all the files", "overview",
	"how is the project organized", "code structure",
}

var codeGenKeywords = []string{
	"create", "generate", "implement", "develop", "write code",
	"function that", "class that", "endpoint for", "route for",
	"add a", "new feature", "build a",
}

var debugKeywords = []string{
	"bug", "error", "fix", "repair", "doesn't work",
	"problem with", "broken", "why is it failing",
}

var featureKeywords = []string{
	"improve", "extend", "module for", "system for",
	"feature", "optimize", "modify",
}

// ClassifyQuery labels a message with a query type from ordered keyword
// matching: architecture wins over code generation, which wins over
// debugging, which wins over feature. With no keyword hit, conversations
// longer than the threshold classify as feature, everything else as simple.
// Pure function of its inputs.
func ClassifyQuery(message string, historyLength int) QueryType {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, architectureKeywords):
		return QueryArchitecture
	case containsAny(lower, codeGenKeywords):
		return QueryCodeGen
	case containsAny(lower, debugKeywords):
		return QueryDebug
	case containsAny(lower, featureKeywords):
		return QueryFeature
	case historyLength > longConversationThreshold:
		return QueryFeature
	default:
		return QuerySimple
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
