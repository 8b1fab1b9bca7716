package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModelContextLimit_KnownModels(t *testing.T) {
	require.Equal(t, 8192, ModelContextLimit("gpt-4"))
	require.Equal(t, 128000, ModelContextLimit("gpt-4-turbo"))
	require.Equal(t, 200000, ModelContextLimit("claude-3-5-sonnet-20241022"))
	require.Equal(t, 2000000, ModelContextLimit("gemini-1.5-pro"))
	require.Equal(t, 32768, ModelContextLimit("mistral:7b"))
}

func TestModelContextLimit_CaseInsensitive(t *testing.T) {
	require.Equal(t, 8192, ModelContextLimit("GPT-4"))
	require.Equal(t, 200000, ModelContextLimit("Claude-3-Opus"))
}

func TestModelContextLimit_LongestFragmentWins(t *testing.T) {
	// "gpt-4-turbo-preview" contains both "gpt-4" and "gpt-4-turbo";
	// the more specific fragment must win.
	require.Equal(t, 128000, ModelContextLimit("gpt-4-turbo-preview"))
}

func TestModelContextLimit_UnknownFallsBack(t *testing.T) {
	require.Equal(t, DefaultContextLimit, ModelContextLimit("some-exotic-model"))
}

func TestModelContextLimit_Stable(t *testing.T) {
	first := ModelContextLimit("llama3.1:8b-instruct")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, ModelContextLimit("llama3.1:8b-instruct"))
	}
}
