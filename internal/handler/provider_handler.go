package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ragline/ragline/internal/pkg/response"
	"github.com/ragline/ragline/internal/service"
)

type ProviderHandler struct {
	providers *service.ProviderService
}

func NewProviderHandler(providers *service.ProviderService) *ProviderHandler {
	return &ProviderHandler{providers: providers}
}

func (h *ProviderHandler) List(c *gin.Context) {
	response.Success(c, h.providers.Names())
}

func (h *ProviderHandler) Test(c *gin.Context) {
	response.Success(c, h.providers.Test(c.Request.Context()))
}

func (h *ProviderHandler) Models(c *gin.Context) {
	models, err := h.providers.Models(c.Request.Context(), c.Query("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, models)
}
