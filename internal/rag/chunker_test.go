package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunker_EmptyTextYieldsNoChunks(t *testing.T) {
	c := NewChunker()
	require.Empty(t, c.Chunk(context.Background(), "", map[string]interface{}{"source": "a.txt"}))
	require.Empty(t, c.Chunk(context.Background(), "  \n\n  ", map[string]interface{}{"source": "a.txt"}))
}

func TestChunker_SmallTextIsSingleChunk(t *testing.T) {
	c := NewChunker()
	text := "First paragraph here.\n\nSecond paragraph here."
	chunks := c.Chunk(context.Background(), text, map[string]interface{}{"source": "notes.txt"})
	require.Len(t, chunks, 1)
	require.Equal(t, text, chunks[0].Text)
	require.Equal(t, 0, chunks[0].Metadata["chunk_index"])
	require.Equal(t, "documentation", chunks[0].Metadata["profile"])
}

func TestChunker_ProfileSelection(t *testing.T) {
	c := NewChunker()
	tests := []struct {
		source string
		size   int
		want   string
	}{
		{"main.go", 1000, "code_analysis"},
		{"script.py", 1000, "code_analysis"},
		{"README.md", 1000, "documentation"},
		{"notes.txt", 1000, "documentation"},
		{"report.pdf", 1000, "standard"},
		{"data.bin", 1000, "standard"},
		{"huge.go", 100 << 10, "project_full"},
		{"huge.md", 200 << 10, "project_full"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, c.SelectProfile(tt.source, tt.size).Label, "source: %s", tt.source)
	}
}

func TestChunker_ProfileSelectionIdempotent(t *testing.T) {
	c := NewChunker()
	first := c.SelectProfile("server.go", 500)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, c.SelectProfile("server.go", 500))
	}
}

func TestChunker_IndicesIncreaseWithoutGaps(t *testing.T) {
	c := NewChunker()
	// Paragraphs of ~600 estimated tokens against the standard profile's
	// 2000-token chunks force several flushes.
	para := strings.TrimSpace(strings.Repeat("abcd ", 600))
	text := strings.Repeat(para+"\n\n", 12)
	chunks := c.Chunk(context.Background(), text, map[string]interface{}{"source": "dump.dat"})
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.Metadata["chunk_index"])
		require.NotEmpty(t, chunk.Text)
	}
}

func TestChunker_OverlapCarriesTrailingParagraphs(t *testing.T) {
	c := NewChunker()
	para := strings.TrimSpace(strings.Repeat("abcd ", 150)) // ~150 tokens each
	text := strings.Repeat(para+"\n\n", 20)                 // ~3000 tokens total
	chunks := c.Chunk(context.Background(), text, map[string]interface{}{"source": "dump.dat"})
	require.Greater(t, len(chunks), 1)
	// The second chunk must open with content repeated from the first.
	require.True(t, strings.HasPrefix(chunks[1].Text, para))
}

func TestChunker_LongSingleParagraphFallsBackToSentences(t *testing.T) {
	c := NewChunker()
	sentence := strings.TrimSpace(strings.Repeat("abcd ", 200)) // ~200 tokens
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString(sentence)
		sb.WriteString(". ")
	}
	// No blank lines anywhere: a single ~4000-token paragraph.
	chunks := c.Chunk(context.Background(), sb.String(), map[string]interface{}{"source": "blob.dat"})
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.Metadata["chunk_index"])
		require.LessOrEqual(t, chunk.TokenCount, 2000+210) // one sentence of slack
	}
}

func TestChunker_MetadataPreservedAndExtended(t *testing.T) {
	c := NewChunker()
	meta := map[string]interface{}{"source": "doc.md", "document_id": "d1"}
	chunks := c.Chunk(context.Background(), "Hello world.", meta)
	require.Len(t, chunks, 1)
	require.Equal(t, "doc.md", chunks[0].Metadata["source"])
	require.Equal(t, "d1", chunks[0].Metadata["document_id"])
	// The input map must not be mutated.
	_, hasIndex := meta["chunk_index"]
	require.False(t, hasIndex)
}
