package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/internal/model"
)

func ragChunk(name, text string) model.RetrievedChunk {
	return model.RetrievedChunk{
		Text:     text,
		Metadata: map[string]interface{}{"filename": name},
		Score:    0.9,
	}
}

func TestAssemble_RAGBudgetScenario(t *testing.T) {
	// gpt-4 (limit 8192) with the simple strategy (ratio 0.4) gives a RAG
	// budget of 3276 tokens. Ten ~500-token chunks fit six times over
	// (~3000 <= 3276) and the seventh is dropped at the boundary.
	text := strings.TrimSpace(strings.Repeat("abcd ", 495))
	var chunks []model.RetrievedChunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, ragChunk("chunk.txt", text))
	}

	result, err := NewAssembler().Assemble(context.Background(), AssembleInput{
		QueryType:   QuerySimple,
		Model:       "gpt-4",
		UserMessage: "what is this about",
		Chunks:      chunks,
	})
	require.NoError(t, err)
	require.Equal(t, 3276, result.Budget.RAGTokensMax)
	require.Len(t, result.RetrievedChunks, 6)
	require.LessOrEqual(t, result.Budget.RAGTokensUsed, result.Budget.RAGTokensMax)
}

func TestAssemble_RAGUsageNeverExceedsBudget(t *testing.T) {
	for _, count := range []int{0, 1, 5, 30, 100} {
		var chunks []model.RetrievedChunk
		for i := 0; i < count; i++ {
			chunks = append(chunks, ragChunk("f.go", strings.Repeat("abcd ", 200)))
		}
		result, err := NewAssembler().Assemble(context.Background(), AssembleInput{
			QueryType:   QueryDebug,
			Model:       "gpt-3.5-turbo",
			UserMessage: "why does this fail",
			Chunks:      chunks,
		})
		require.NoError(t, err)
		require.LessOrEqual(t, result.Budget.RAGTokensUsed, result.Budget.RAGTokensMax, "count: %d", count)
	}
}

func TestAssemble_IndexNeverTruncated(t *testing.T) {
	// An index bigger than the whole RAG budget squeezes every chunk out
	// but stays in the system prompt itself.
	index := strings.TrimSpace(strings.Repeat("path ", 6000))
	result, err := NewAssembler().Assemble(context.Background(), AssembleInput{
		QueryType:    QueryArchitecture, // include_index = true
		Model:        "gpt-4",
		UserMessage:  "describe the architecture",
		Chunks:       []model.RetrievedChunk{ragChunk("a.go", "func main() {}")},
		ProjectIndex: index,
	})
	require.NoError(t, err)
	require.Empty(t, result.RetrievedChunks)
	require.Contains(t, result.Messages[0].Content, "path path")
}

func TestAssemble_SystemPromptNamesQueryType(t *testing.T) {
	result, err := NewAssembler().Assemble(context.Background(), AssembleInput{
		QueryType:   QueryDebug,
		Model:       "gpt-4",
		UserMessage: "fix it",
		Chunks:      []model.RetrievedChunk{ragChunk("x.go", "some code")},
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleSystem, result.Messages[0].Role)
	require.Contains(t, result.Messages[0].Content, "debugging")
	require.Contains(t, result.Messages[0].Content, "[SOURCE X]")
}

func TestAssemble_NoChunksNoSystemMessage(t *testing.T) {
	result, err := NewAssembler().Assemble(context.Background(), AssembleInput{
		QueryType:   QuerySimple,
		Model:       "gpt-4",
		UserMessage: "hello",
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	require.Equal(t, model.RoleUser, result.Messages[0].Role)
}

func TestAssemble_HistoryPlacedBeforeUserMessage(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleUser, Content: "first question"},
		{Role: model.RoleAssistant, Content: "first answer"},
	}
	result, err := NewAssembler().Assemble(context.Background(), AssembleInput{
		QueryType:   QuerySimple,
		Model:       "gpt-4",
		UserMessage: "follow-up",
		History:     history,
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 3)
	require.Equal(t, "first question", result.Messages[0].Content)
	require.Equal(t, "first answer", result.Messages[1].Content)
	require.Equal(t, "follow-up", result.Messages[2].Content)
}

func TestAssemble_OverflowRejected(t *testing.T) {
	// A user message alone past 95% of the limit is rejected, never
	// truncated.
	huge := strings.TrimSpace(strings.Repeat("abcd ", 9000))
	_, err := NewAssembler().Assemble(context.Background(), AssembleInput{
		QueryType:   QuerySimple,
		Model:       "gpt-4",
		UserMessage: huge,
	})
	require.ErrorIs(t, err, ErrContextOverflow)
}
