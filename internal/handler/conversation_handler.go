package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ragline/ragline/internal/pkg/errcode"
	"github.com/ragline/ragline/internal/pkg/response"
	"github.com/ragline/ragline/internal/service"
)

type ConversationHandler struct {
	chat *service.ChatService
}

func NewConversationHandler(chat *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

type conversationRequest struct {
	Title       string  `json:"title"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req conversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	conv, err := h.chat.StartConversation(c.Request.Context(), c.Param("id"),
		req.Title, req.Provider, req.Model, req.Temperature)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, conv)
}

func (h *ConversationHandler) List(c *gin.Context) {
	convs, err := h.chat.ListConversations(c.Request.Context(), c.Param("id"),
		queryUint(c, "limit"), queryUint(c, "offset"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, convs)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.chat.GetConversation(c.Request.Context(), c.Param("id"), c.Param("conv_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, conv)
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	messages, err := h.chat.ListMessages(c.Request.Context(), c.Param("id"), c.Param("conv_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, messages)
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.chat.DeleteConversation(c.Request.Context(), c.Param("id"), c.Param("conv_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
