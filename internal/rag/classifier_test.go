package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyQuery_KeywordCategories(t *testing.T) {
	tests := []struct {
		message string
		want    QueryType
	}{
		{"show me the architecture of this service", QueryArchitecture},
		{"can you give me an overview of the codebase", QueryArchitecture},
		{"implement a retry helper for the client", QueryCodeGen},
		{"generate an endpoint for uploads", QueryCodeGen},
		{"there is a bug in the pagination", QueryDebug},
		{"fix the failing import", QueryDebug},
		{"optimize the cache layer", QueryFeature},
		{"extend the export module", QueryFeature},
		{"what does this repo do", QuerySimple},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ClassifyQuery(tt.message, 0), "message: %s", tt.message)
	}
}

func TestClassifyQuery_ArchitectureBeatsDebug(t *testing.T) {
	// Priority order: a message holding both an architecture keyword and a
	// debug keyword classifies as architecture.
	got := ClassifyQuery("the architecture has a bug somewhere", 0)
	require.Equal(t, QueryArchitecture, got)
}

func TestClassifyQuery_CodeGenBeatsDebug(t *testing.T) {
	got := ClassifyQuery("generate a fix", 0)
	require.Equal(t, QueryCodeGen, got)
}

func TestClassifyQuery_LongConversationDefaultsToFeature(t *testing.T) {
	require.Equal(t, QuerySimple, ClassifyQuery("ok thanks", 5))
	require.Equal(t, QueryFeature, ClassifyQuery("ok thanks", 6))
}

func TestClassifyQuery_Deterministic(t *testing.T) {
	first := ClassifyQuery("why does it return nil", 3)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, ClassifyQuery("why does it return nil", 3))
	}
}
