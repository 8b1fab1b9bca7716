package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrategyFor_AllTypesDefined(t *testing.T) {
	for _, qt := range []QueryType{QueryArchitecture, QueryCodeGen, QueryDebug, QueryFeature, QuerySimple} {
		s := StrategyFor(qt)
		require.Greater(t, s.TopK, 0)
		require.Greater(t, s.ContextRatio, 0.0)
		require.LessOrEqual(t, s.ContextRatio, 1.0)
	}
}

func TestStrategyFor_UnknownFallsBackToSimple(t *testing.T) {
	require.Equal(t, StrategyFor(QuerySimple), StrategyFor(QueryType("nonsense")))
}

func TestClampTopK(t *testing.T) {
	// Small-context models cap at 15.
	require.Equal(t, 15, ClampTopK(50, 8192))
	require.Equal(t, 10, ClampTopK(10, 8192))
	// Mid-range models keep the strategy value.
	require.Equal(t, 50, ClampTopK(50, 64000))
	// Large-context models cap at 60.
	require.Equal(t, 60, ClampTopK(80, 200000))
	require.Equal(t, 45, ClampTopK(45, 200000))
}
