package model

// Chunk is one bounded slice of a source document, produced at ingestion
// time. Text and metadata go to the vector store, TokenCount to the
// document record.
type Chunk struct {
	Text       string                 `json:"text"`
	Metadata   map[string]interface{} `json:"metadata"`
	TokenCount int                    `json:"token_count"`
}

// RetrievedChunk is a query-time hit from the vector store. It lives for
// one turn and is serialized into the assistant message for auditing.
type RetrievedChunk struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    float64                `json:"score"`
}

// ChunkFilename reads the source filename out of chunk metadata.
func ChunkFilename(metadata map[string]interface{}) string {
	if metadata == nil {
		return "unknown"
	}
	if v, ok := metadata["filename"].(string); ok && v != "" {
		return v
	}
	if v, ok := metadata["source"].(string); ok && v != "" {
		return v
	}
	return "unknown"
}
