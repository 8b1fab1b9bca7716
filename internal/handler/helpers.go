package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/ai"
	"github.com/ragline/ragline/internal/pkg/errcode"
	appErr "github.com/ragline/ragline/internal/pkg/errors"
	"github.com/ragline/ragline/internal/pkg/response"
	"github.com/ragline/ragline/internal/rag"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case appErr.IsConflict(err):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, rag.ErrContextOverflow):
		response.Error(c, errcode.ErrContextOverflow, err.Error())
	case errors.Is(err, ai.ErrUnavailable), errors.Is(err, appErr.ErrProviderUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai provider unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

func queryUint(c *gin.Context, name string) uint {
	if value := c.Query(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return uint(parsed)
		}
	}
	return 0
}
