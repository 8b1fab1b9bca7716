package rag

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/model"
)

// ChunkProfile bounds one chunk and its overlap with the next, in estimated
// tokens.
type ChunkProfile struct {
	ChunkSize int
	Overlap   int
	Label     string
}

var (
	profileCodeAnalysis = ChunkProfile{ChunkSize: 8000, Overlap: 500, Label: "code_analysis"}
	profileDocumentation = ChunkProfile{ChunkSize: 4000, Overlap: 400, Label: "documentation"}
	profileStandard      = ChunkProfile{ChunkSize: 2000, Overlap: 200, Label: "standard"}
	profileProjectFull   = ChunkProfile{ChunkSize: 32000, Overlap: 1000, Label: "project_full"}
)

var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".cpp": true, ".c": true, ".go": true, ".rs": true,
}

var docExtensions = map[string]bool{
	".md": true, ".txt": true, ".rst": true, ".adoc": true,
}

// Inputs past these sizes get the project_full profile so one big source
// file does not shatter into dozens of chunks.
const (
	codeFullProjectBytes = 48 << 10
	docFullProjectBytes  = 96 << 10
)

type Chunker struct{}

func NewChunker() *Chunker {
	return &Chunker{}
}

// SelectProfile picks a chunk profile from the source filename and raw size.
// The same filename and size always select the same profile.
func (c *Chunker) SelectProfile(source string, size int) ChunkProfile {
	ext := strings.ToLower(filepath.Ext(source))
	switch {
	case codeExtensions[ext]:
		if size > codeFullProjectBytes {
			return profileProjectFull
		}
		return profileCodeAnalysis
	case docExtensions[ext]:
		if size > docFullProjectBytes {
			return profileProjectFull
		}
		return profileDocumentation
	default:
		return profileStandard
	}
}

// Chunk splits text into overlapping chunks sized by the profile selected
// from metadata["source"]. Empty input yields no chunks. Chunk indices are
// strictly increasing with no gaps.
func (c *Chunker) Chunk(ctx context.Context, text string, metadata map[string]interface{}) []model.Chunk {
	logger := logutil.GetLogger(ctx)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	source, _ := metadata["source"].(string)
	profile := c.SelectProfile(source, len(text))
	logger.Debug("chunk profile selected",
		zap.String("source", source),
		zap.String("profile", profile.Label),
		zap.Int("chunk_size", profile.ChunkSize),
		zap.Int("overlap", profile.Overlap),
	)

	paragraphs := splitParagraphs(text)

	var chunks []model.Chunk
	var current []string
	currentTokens := 0

	emit := func(parts []string, sep string, tokens int) {
		chunks = append(chunks, model.Chunk{
			Text:       strings.Join(parts, sep),
			Metadata:   chunkMetadata(metadata, len(chunks), profile.Label),
			TokenCount: tokens,
		})
	}

	for _, para := range paragraphs {
		paraTokens := EstimateTokens(para)
		if currentTokens+paraTokens > profile.ChunkSize {
			if len(current) > 0 {
				emit(current, "\n\n", currentTokens)
				overlap := overlapParagraphs(current, profile.Overlap)
				current = append(overlap, para)
				currentTokens = 0
				for _, p := range current {
					currentTokens += EstimateTokens(p)
				}
				continue
			}
			// A single paragraph over the chunk size gets split on
			// sentence boundaries, without overlap carry-over.
			for _, sub := range splitLongParagraph(para, profile.ChunkSize) {
				chunks = append(chunks, model.Chunk{
					Text:       sub,
					Metadata:   chunkMetadata(metadata, len(chunks), ""),
					TokenCount: EstimateTokens(sub),
				})
			}
			current = nil
			currentTokens = 0
			continue
		}
		current = append(current, para)
		currentTokens += paraTokens
	}
	if len(current) > 0 {
		emit(current, "\n\n", currentTokens)
	}

	logger.Info("document chunked",
		zap.String("source", source),
		zap.String("profile", profile.Label),
		zap.Int("chunks", len(chunks)),
	)
	return chunks
}

func chunkMetadata(base map[string]interface{}, index int, label string) map[string]interface{} {
	meta := make(map[string]interface{}, len(base)+2)
	for k, v := range base {
		meta[k] = v
	}
	meta["chunk_index"] = index
	if label != "" {
		meta["profile"] = label
	}
	return meta
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// overlapParagraphs collects trailing paragraphs worth at most maxTokens,
// preserving order, to seed the next chunk.
func overlapParagraphs(paragraphs []string, maxTokens int) []string {
	var overlap []string
	tokens := 0
	for i := len(paragraphs) - 1; i >= 0; i-- {
		t := EstimateTokens(paragraphs[i])
		if tokens+t > maxTokens {
			break
		}
		overlap = append([]string{paragraphs[i]}, overlap...)
		tokens += t
	}
	return overlap
}

func splitLongParagraph(para string, chunkSize int) []string {
	sentences := strings.Split(para, ". ")
	var parts []string
	var current []string
	currentTokens := 0

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if !strings.HasSuffix(sentence, ".") {
			sentence += "."
		}
		tokens := EstimateTokens(sentence)
		if currentTokens+tokens > chunkSize {
			if len(current) > 0 {
				parts = append(parts, strings.Join(current, " "))
			}
			current = []string{sentence}
			currentTokens = tokens
			continue
		}
		current = append(current, sentence)
		currentTokens += tokens
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, " "))
	}
	return parts
}
