package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/ragline/ragline/internal/pkg/errors"
	"github.com/ragline/ragline/internal/rag"
	"github.com/ragline/ragline/internal/service"
	"github.com/ragline/ragline/internal/stream"
)

// StreamIDHeader carries the client's streaming session id. Reusing the id
// across requests is how a client resumes after a broken connection.
const StreamIDHeader = "X-Stream-Id"

type ChatHandler struct {
	chat      *service.ChatService
	streams   *stream.Manager
	heartbeat time.Duration
}

func NewChatHandler(chat *service.ChatService, streams *stream.Manager, heartbeat time.Duration) *ChatHandler {
	if heartbeat <= 0 {
		heartbeat = stream.DefaultHeartbeatInterval
	}
	return &ChatHandler{chat: chat, streams: streams, heartbeat: heartbeat}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat runs one conversational turn and streams the response as SSE.
// Pipeline failures surface as a plain status response before any
// event-stream byte is written; a context budget overflow is a 400.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sessionID := c.GetHeader(StreamIDHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := c.Request.Context()
	events, err := h.chat.Chat(ctx, service.ChatRequest{
		ProjectID:      c.Param("id"),
		ConversationID: c.Param("conv_id"),
		Message:        req.Message,
		SessionID:      sessionID,
	})
	if err != nil {
		h.preStreamError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set(StreamIDHeader, sessionID)
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)
	write := func(ev stream.Event) {
		_, _ = c.Writer.WriteString(ev.SSE())
		if flusher != nil {
			flusher.Flush()
		}
	}

	write(stream.Event{Type: stream.EventConnected, Data: map[string]interface{}{
		"session_id": sessionID,
	}})

	heartbeatCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	merged := stream.Merge(events, stream.Heartbeat(heartbeatCtx, h.heartbeat))

	defer h.streams.Close(sessionID)
	for {
		select {
		case <-ctx.Done():
			logutil.GetLogger(ctx).Warn("client disconnected mid-stream",
				zap.String("session_id", sessionID))
			cancel()
			// Drain so the producer goroutines can exit; the deferred
			// Close turns the pump's remaining emits into no-ops.
			go func() {
				for range merged {
				}
			}()
			return
		case ev, ok := <-merged:
			if !ok {
				return
			}
			write(ev)
			if ev.IsTerminal() {
				cancel()
				// Drain so the producer goroutines can exit.
				go func() {
					for range merged {
					}
				}()
				return
			}
		}
	}
}

func (h *ChatHandler) preStreamError(c *gin.Context, err error) {
	logutil.GetLogger(c.Request.Context()).Error("chat pipeline failed",
		zap.String("path", c.Request.URL.Path), zap.Error(err))
	switch {
	case errors.Is(err, rag.ErrContextOverflow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, appErr.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case appErr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, appErr.ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provider unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Session reports the server-side view of a streaming session.
func (h *ChatHandler) Session(c *gin.Context) {
	session, ok := h.streams.Get(c.Param("session_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":         session.ID,
		"created_at":         session.CreatedAt,
		"last_activity":      session.LastActivity,
		"chunks_sent":        session.ChunksSent,
		"reconnect_attempts": session.ReconnectAttempts,
	})
}

// Reconnect applies the backoff policy for a broken session: attempts are
// capped, delays double up to a ceiling. A session past its attempt budget
// is gone.
func (h *ChatHandler) Reconnect(c *gin.Context) {
	sessionID := c.Param("session_id")
	if !h.streams.ShouldReconnect(sessionID) {
		c.JSON(http.StatusGone, gin.H{"error": "session expired or over reconnect budget"})
		return
	}
	delay := h.streams.BackoffDelay(sessionID)
	session, _ := h.streams.Get(sessionID)
	c.JSON(http.StatusOK, gin.H{
		"session_id":  sessionID,
		"retry_in_ms": delay.Milliseconds(),
		"attempt":     session.ReconnectAttempts,
	})
}

// Replay returns the buffered tail of a session's events so a reconnecting
// client can resume without losing the already generated chunks.
func (h *ChatHandler) Replay(c *gin.Context) {
	sessionID := c.Param("session_id")
	if _, ok := h.streams.Get(sessionID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	entries := h.streams.Buffer().Recent(h.streams.Buffer().Len())
	events := make([]stream.Event, 0, 64)
	for _, entry := range entries {
		if entry.SessionID == sessionID {
			events = append(events, entry.Event)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"events":     events,
	})
}
