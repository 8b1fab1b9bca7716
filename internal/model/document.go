package model

const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusReady      = "ready"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Filename   string `json:"filename"`
	FileKey    string `json:"file_key"`
	FileSize   int64  `json:"file_size"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	TokenCount int    `json:"token_count"`
	Error      string `json:"error,omitempty"`
	Ctime      int64  `json:"ctime"`
	Mtime      int64  `json:"mtime"`
}
