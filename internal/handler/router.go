package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ragline/ragline/internal/middleware"
)

type RouterDeps struct {
	Projects      *ProjectHandler
	Documents     *DocumentHandler
	Conversations *ConversationHandler
	Chat          *ChatHandler
	Providers     *ProviderHandler
	Files         *FileHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(middleware.RequestID())

	api.POST("/projects", deps.Projects.Create)
	api.GET("/projects", deps.Projects.List)
	api.GET("/projects/:id", deps.Projects.Get)
	api.PUT("/projects/:id", deps.Projects.Update)
	api.DELETE("/projects/:id", deps.Projects.Delete)
	api.GET("/projects/:id/stats", deps.Projects.Stats)

	api.POST("/projects/:id/documents", middleware.RateLimit(time.Second), deps.Documents.Upload)
	api.GET("/projects/:id/documents", deps.Documents.List)
	api.GET("/projects/:id/documents/:doc_id", deps.Documents.Get)
	api.DELETE("/projects/:id/documents/:doc_id", deps.Documents.Delete)

	api.POST("/projects/:id/conversations", deps.Conversations.Create)
	api.GET("/projects/:id/conversations", deps.Conversations.List)
	api.GET("/projects/:id/conversations/:conv_id", deps.Conversations.Get)
	api.GET("/projects/:id/conversations/:conv_id/messages", deps.Conversations.Messages)
	api.DELETE("/projects/:id/conversations/:conv_id", deps.Conversations.Delete)
	api.POST("/projects/:id/conversations/:conv_id/chat", deps.Chat.Chat)

	api.GET("/stream/:session_id", deps.Chat.Session)
	api.POST("/stream/:session_id/reconnect", deps.Chat.Reconnect)
	api.GET("/stream/:session_id/replay", deps.Chat.Replay)

	api.GET("/providers", deps.Providers.List)
	api.GET("/providers/test", deps.Providers.Test)
	api.GET("/providers/models", deps.Providers.Models)

	api.GET("/files/:key", deps.Files.Get)
}
