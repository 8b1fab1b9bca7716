package rag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateDocumentIndex_Empty(t *testing.T) {
	require.Equal(t, "", GenerateDocumentIndex(nil))
	require.Equal(t, "", GenerateDocumentIndex([]IndexedDocument{}))
}

func TestGenerateDocumentIndex_ImportantFilesFirst(t *testing.T) {
	docs := []IndexedDocument{
		{Filename: "notes.txt", ChunkCount: 2, TokenCount: 900},
		{Filename: "main.py", ChunkCount: 5, TokenCount: 4200},
		{Filename: "api.py", ChunkCount: 3, TokenCount: 2500},
	}
	index := GenerateDocumentIndex(docs)

	require.True(t, strings.HasPrefix(index, "# PROJECT STRUCTURE"))
	posMain := strings.Index(index, "`main.py`")
	posAPI := strings.Index(index, "`api.py`")
	posNotes := strings.Index(index, "`notes.txt`")
	require.True(t, posMain >= 0 && posAPI >= 0 && posNotes >= 0)
	require.Less(t, posMain, posAPI)
	require.Less(t, posAPI, posNotes)

	require.Contains(t, index, "`main.py` (5 chunks, ~4200 tokens)")
	require.Contains(t, index, "Total: 3 documents, 10 chunks")
}

func TestGenerateDocumentIndex_DoesNotMutateInput(t *testing.T) {
	docs := []IndexedDocument{
		{Filename: "zebra.txt"},
		{Filename: "main.go"},
	}
	_ = GenerateDocumentIndex(docs)
	require.Equal(t, "zebra.txt", docs[0].Filename)
}

func TestGenerateProjectIndex_MissingDirIsEmpty(t *testing.T) {
	require.Equal(t, "", GenerateProjectIndex(filepath.Join(t.TempDir(), "absent")))
}

func TestGenerateProjectIndex_GroupsByModuleAndSkipsIgnored(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	write("main.py")
	write("core/models.py")
	write("core/views.py")
	write("node_modules/pkg/index.js")
	write("__pycache__/main.cpython-311.pyc")

	index := GenerateProjectIndex(root)
	require.Contains(t, index, "## root/")
	require.Contains(t, index, "## core/")
	require.NotContains(t, index, "node_modules")
	require.NotContains(t, index, "pycache")
	require.Contains(t, index, "Total: 3 files")
	require.Contains(t, index, "`main.py`")
}
