package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/internal/stream"
)

func streamTestRouter(streams *stream.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChatHandler(nil, streams, 0)
	engine := gin.New()
	engine.GET("/stream/:session_id", h.Session)
	engine.POST("/stream/:session_id/reconnect", h.Reconnect)
	engine.GET("/stream/:session_id/replay", h.Replay)
	return engine
}

func TestSession_UnknownIs404(t *testing.T) {
	engine := streamTestRouter(stream.NewManager(10, 0))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/stream/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_ReportsState(t *testing.T) {
	streams := stream.NewManager(10, 0)
	streams.Create("s1")
	engine := streamTestRouter(streams)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/stream/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "s1", body["session_id"])
	require.EqualValues(t, 0, body["chunks_sent"])
}

func TestReconnect_BackoffDoublesUntilBudgetExhausted(t *testing.T) {
	streams := stream.NewManager(10, 0)
	streams.Create("s1")
	engine := streamTestRouter(streams)

	wantDelaysMS := []int64{2000, 4000, 8000, 16000, 16000}
	for _, want := range wantDelaysMS {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest("POST", "/stream/s1/reconnect", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.EqualValues(t, want, body["retry_in_ms"])
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("POST", "/stream/s1/reconnect", nil))
	require.Equal(t, http.StatusGone, rec.Code)
}

func TestReconnect_UnknownSessionIsGone(t *testing.T) {
	engine := streamTestRouter(stream.NewManager(10, 0))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("POST", "/stream/ghost/reconnect", nil))
	require.Equal(t, http.StatusGone, rec.Code)
}

func TestReplay_ReturnsOnlyOwnSessionEvents(t *testing.T) {
	streams := stream.NewManager(10, 0)
	streams.Create("mine")
	streams.Create("other")
	ctx := context.Background()
	_, ok := streams.Emit(ctx, "mine", "hello ")
	require.True(t, ok)
	_, ok = streams.Emit(ctx, "other", "noise")
	require.True(t, ok)
	_, ok = streams.Emit(ctx, "mine", "world")
	require.True(t, ok)

	engine := streamTestRouter(streams)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/stream/mine/replay", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SessionID string         `json:"session_id"`
		Events    []stream.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "mine", body.SessionID)
	require.Len(t, body.Events, 2)
	for _, ev := range body.Events {
		require.Equal(t, stream.EventMessage, ev.Type)
	}
}
