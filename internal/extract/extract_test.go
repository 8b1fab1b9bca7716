package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPlainPassthrough(t *testing.T) {
	ctx := context.Background()
	data := []byte("package main\n\nfunc main() {}\n")
	out, err := Extract(ctx, "main.go", data)
	require.NoError(t, err)
	require.Equal(t, string(data), out)
}

func TestExtractUnsupported(t *testing.T) {
	ctx := context.Background()
	_, err := Extract(ctx, "photo.png", []byte{0x89, 0x50})
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractMarkdownKeepsStructure(t *testing.T) {
	ctx := context.Background()
	md := strings.Join([]string{
		"# Title",
		"",
		"Intro paragraph with *emphasis* kept as text.",
		"",
		"```go",
		"fmt.Println(\"hi\")",
		"```",
		"",
		"Closing paragraph.",
	}, "\n")
	out, err := Extract(ctx, "README.md", []byte(md))
	require.NoError(t, err)
	require.Contains(t, out, "# Title")
	require.Contains(t, out, "Intro paragraph with emphasis kept as text.")
	require.Contains(t, out, "```go\nfmt.Println(\"hi\")\n```")
	require.Contains(t, out, "Closing paragraph.")
	// Blocks stay separated by blank lines for the chunker.
	require.True(t, strings.Index(out, "# Title\n\n") == 0)
}

func TestExtractSizeLimit(t *testing.T) {
	ctx := context.Background()
	_, err := Extract(ctx, "big.txt", make([]byte, MaxFileSize+1))
	require.Error(t, err)
}
