package model

// ChatMessage is one prompt message in provider wire order.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
