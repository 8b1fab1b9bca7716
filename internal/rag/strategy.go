package rag

// RetrievalStrategy controls retrieval breadth and context allocation for
// one query type. Static, read-only at runtime.
type RetrievalStrategy struct {
	Description  string
	TopK         int
	ContextRatio float64
	IncludeIndex bool
}

var strategies = map[QueryType]RetrievalStrategy{
	QueryArchitecture: {
		Description:  "project-wide view",
		TopK:         50,
		ContextRatio: 0.6,
		IncludeIndex: true,
	},
	QueryCodeGen: {
		Description:  "code generation",
		TopK:         40,
		ContextRatio: 0.7,
		IncludeIndex: true,
	},
	QueryDebug: {
		Description:  "debugging",
		TopK:         30,
		ContextRatio: 0.5,
		IncludeIndex: false,
	},
	QueryFeature: {
		Description:  "feature work",
		TopK:         45,
		ContextRatio: 0.65,
		IncludeIndex: true,
	},
	QuerySimple: {
		Description:  "simple question",
		TopK:         15,
		ContextRatio: 0.4,
		IncludeIndex: false,
	},
}

// StrategyFor returns the retrieval strategy for a query type. Unknown
// types fall back to the simple strategy.
func StrategyFor(queryType QueryType) RetrievalStrategy {
	if s, ok := strategies[queryType]; ok {
		return s
	}
	return strategies[QuerySimple]
}

// ClampTopK bounds retrieval breadth by model capacity: small-context
// models cap at 15 chunks, large-context models at 60.
func ClampTopK(topK, contextLimit int) int {
	switch {
	case contextLimit < 32000 && topK > 15:
		return 15
	case contextLimit > 100000 && topK > 60:
		return 60
	default:
		return topK
	}
}
