package model

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Conversation struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	Title        string  `json:"title"`
	ProviderName string  `json:"provider_name"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
	Ctime        int64   `json:"ctime"`
	Mtime        int64   `json:"mtime"`
}

// Message is one conversation turn. RetrievedChunks carries the audit trail
// of the chunks used to answer an assistant turn, serialized as JSON.
// Failed marks a partial assistant turn whose provider stream broke midway.
type Message struct {
	ID              string `json:"id"`
	ConversationID  string `json:"conversation_id"`
	Role            string `json:"role"`
	Content         string `json:"content"`
	TokensUsed      int    `json:"tokens_used"`
	RetrievedChunks string `json:"retrieved_chunks,omitempty"`
	Failed          bool   `json:"failed,omitempty"`
	Ctime           int64  `json:"ctime"`
}
