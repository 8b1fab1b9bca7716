package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateTokens_EmptyAndWhitespace(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(""))
	require.Equal(t, 0, EstimateTokens("   \n\t  "))
}

func TestEstimateTokens_NonEmptyIsAtLeastOne(t *testing.T) {
	require.Equal(t, 1, EstimateTokens("a"))
	require.GreaterOrEqual(t, EstimateTokens("hi"), 1)
}

func TestEstimateTokens_LongerTextNotSmaller(t *testing.T) {
	short := strings.Repeat("word ", 10)
	long := strings.Repeat("word ", 1000)
	require.LessOrEqual(t, EstimateTokens(short), EstimateTokens(long))
}

func TestEstimateTokens_RoughScale(t *testing.T) {
	// 100 four-letter words should land near 100 tokens.
	text := strings.TrimSpace(strings.Repeat("abcd ", 100))
	got := EstimateTokens(text)
	require.InDelta(t, 100, got, 15)
}
