package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/ai"
	"github.com/ragline/ragline/internal/model"
	appErr "github.com/ragline/ragline/internal/pkg/errors"
	"github.com/ragline/ragline/internal/rag"
	"github.com/ragline/ragline/internal/repo"
	"github.com/ragline/ragline/internal/stream"
	"github.com/ragline/ragline/internal/vectorstore"
)

const embedTaskQuery = "RETRIEVAL_QUERY"

const conversationTitleMax = 64

// ConversationStore is the persistence surface the chat pipeline writes
// through.
type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	GetByID(ctx context.Context, projectID, id string) (*model.Conversation, error)
	ListByProject(ctx context.Context, projectID string, limit, offset uint) ([]model.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
	Delete(ctx context.Context, projectID, id string) error
	Touch(ctx context.Context, id string, title string, mtime int64) error
	AppendMessage(ctx context.Context, msg *model.Message) error
}

type ChatService struct {
	projects        *repo.ProjectRepo
	conversations   ConversationStore
	documents       *repo.DocumentRepo
	vectors         *vectorstore.VectorStore
	embedder        ai.IEmbedder
	providers       map[string]ai.IProvider
	defaultProvider string
	defaultModel    string
	temperature     float64
	assembler       *rag.Assembler
	streams         *stream.Manager
}

func NewChatService(projects *repo.ProjectRepo, conversations ConversationStore,
	documents *repo.DocumentRepo, vectors *vectorstore.VectorStore, embedder ai.IEmbedder,
	providers map[string]ai.IProvider, defaultProvider, defaultModel string, temperature float64,
	streams *stream.Manager) *ChatService {
	return &ChatService{
		projects:        projects,
		conversations:   conversations,
		documents:       documents,
		vectors:         vectors,
		embedder:        embedder,
		providers:       providers,
		defaultProvider: defaultProvider,
		defaultModel:    defaultModel,
		temperature:     temperature,
		assembler:       rag.NewAssembler(),
		streams:         streams,
	}
}

func (s *ChatService) StartConversation(ctx context.Context, projectID, title, providerName, modelName string, temperature float64) (*model.Conversation, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if providerName == "" {
		providerName = s.defaultProvider
	}
	if _, ok := s.providers[providerName]; !ok {
		return nil, appErr.ErrInvalid
	}
	if modelName == "" {
		modelName = s.defaultModel
	}
	if temperature == 0 {
		temperature = s.temperature
	}
	now := time.Now().UnixMilli()
	conv := &model.Conversation{
		ID:           newID(),
		ProjectID:    projectID,
		Title:        strings.TrimSpace(title),
		ProviderName: providerName,
		Model:        modelName,
		Temperature:  temperature,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) GetConversation(ctx context.Context, projectID, id string) (*model.Conversation, error) {
	return s.conversations.GetByID(ctx, projectID, id)
}

func (s *ChatService) ListConversations(ctx context.Context, projectID string, limit, offset uint) ([]model.Conversation, error) {
	return s.conversations.ListByProject(ctx, projectID, limit, offset)
}

func (s *ChatService) ListMessages(ctx context.Context, projectID, conversationID string) ([]model.Message, error) {
	if _, err := s.conversations.GetByID(ctx, projectID, conversationID); err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, conversationID)
}

func (s *ChatService) DeleteConversation(ctx context.Context, projectID, id string) error {
	return s.conversations.Delete(ctx, projectID, id)
}

type ChatRequest struct {
	ProjectID      string
	ConversationID string
	Message        string
	SessionID      string
}

// Chat runs the retrieval pipeline synchronously, then streams the model
// response as events on the returned channel. Pipeline failures, including
// a context budget overflow, surface as the error return before any event
// is produced.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (<-chan stream.Event, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, appErr.ErrInvalid
	}
	conv, err := s.conversations.GetByID(ctx, req.ProjectID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	provider, ok := s.providers[conv.ProviderName]
	if !ok {
		provider, ok = s.providers[s.defaultProvider]
		if !ok {
			return nil, appErr.ErrProviderUnavailable
		}
	}

	logger := logutil.GetLogger(ctx).With(
		zap.String("project_id", req.ProjectID),
		zap.String("conversation_id", conv.ID),
		zap.String("provider", provider.Name()),
		zap.String("model", conv.Model),
	)

	history, err := s.conversations.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	queryType := rag.ClassifyQuery(message, len(history))
	strategy := rag.StrategyFor(queryType)
	contextLimit := rag.ModelContextLimit(conv.Model)
	topK := rag.ClampTopK(strategy.TopK, contextLimit)
	logger.Info("query classified",
		zap.String("query_type", string(queryType)),
		zap.Int("top_k", topK),
		zap.Int("context_limit", contextLimit))

	chunks, err := s.retrieve(ctx, req.ProjectID, message, topK)
	if err != nil {
		return nil, err
	}

	projectIndex := ""
	if strategy.IncludeIndex {
		projectIndex, err = s.projectIndex(ctx, req.ProjectID)
		if err != nil {
			return nil, err
		}
	}

	assembled, err := s.assembler.Assemble(ctx, rag.AssembleInput{
		QueryType:    queryType,
		Model:        conv.Model,
		UserMessage:  message,
		Chunks:       chunks,
		ProjectIndex: projectIndex,
		History:      history,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	if err := s.conversations.AppendMessage(ctx, &model.Message{
		ID:             newID(),
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        message,
		TokensUsed:     rag.EstimateTokens(message),
		Ctime:          now,
	}); err != nil {
		return nil, err
	}

	deltas, err := provider.Stream(ctx, assembled.Messages, conv.Model, conv.Temperature)
	if err != nil {
		logger.Error("provider stream failed to start", zap.Error(err))
		return nil, err
	}

	s.streams.Create(req.SessionID)
	out := make(chan stream.Event, 16)
	go s.pump(ctx, pumpArgs{
		out:       out,
		deltas:    deltas,
		conv:      conv,
		message:   message,
		queryType: queryType,
		topK:      topK,
		assembled: assembled,
		sessionID: req.SessionID,
	})
	return out, nil
}

type pumpArgs struct {
	out       chan stream.Event
	deltas    <-chan ai.StreamDelta
	conv      *model.Conversation
	message   string
	queryType rag.QueryType
	topK      int
	assembled *rag.AssembleResult
	sessionID string
}

func (s *ChatService) pump(ctx context.Context, args pumpArgs) {
	defer close(args.out)
	logger := logutil.GetLogger(ctx).With(
		zap.String("conversation_id", args.conv.ID),
		zap.String("session_id", args.sessionID),
	)

	args.out <- stream.Event{Type: stream.EventMetadata, Data: map[string]interface{}{
		"conversation_id": args.conv.ID,
		"query_type":      string(args.queryType),
		"top_k":           args.topK,
		"total_tokens":    args.assembled.TotalTokens,
		"context_limit":   args.assembled.Budget.ContextLimit,
		"rag_tokens":      args.assembled.Budget.RAGTokensUsed,
	}}
	sources := make([]string, 0, len(args.assembled.RetrievedChunks))
	for _, chunk := range args.assembled.RetrievedChunks {
		sources = append(sources, model.ChunkFilename(chunk.Metadata))
	}
	args.out <- stream.Event{Type: stream.EventRetrieval, Data: map[string]interface{}{
		"chunks":  len(args.assembled.RetrievedChunks),
		"sources": sources,
	}}

	var sb strings.Builder
	for delta := range args.deltas {
		if delta.Err != nil {
			logger.Error("provider stream broke", zap.Error(delta.Err))
			s.persistAssistant(ctx, args, sb.String(), true)
			args.out <- stream.Event{Type: stream.EventError, Data: map[string]interface{}{
				"message": delta.Err.Error(),
				"partial": sb.Len() > 0,
			}}
			return
		}
		if delta.Content == "" {
			continue
		}
		ev, ok := s.streams.Emit(ctx, args.sessionID, delta.Content)
		if !ok {
			// Client is gone; keep what was generated, marked partial.
			logger.Warn("session closed mid-stream", zap.Int("generated_bytes", sb.Len()))
			s.persistAssistant(ctx, args, sb.String(), true)
			return
		}
		sb.WriteString(delta.Content)
		args.out <- ev
	}

	s.persistAssistant(ctx, args, sb.String(), false)
	session, _ := s.streams.Get(args.sessionID)
	args.out <- stream.Event{Type: stream.EventDone, Data: map[string]interface{}{
		"conversation_id": args.conv.ID,
		"chunks_sent":     session.ChunksSent,
		"tokens_used":     rag.EstimateTokens(sb.String()),
	}}
	logger.Info("chat stream completed",
		zap.Int("chunks_sent", session.ChunksSent),
		zap.Int("response_bytes", sb.Len()))
}

func (s *ChatService) persistAssistant(ctx context.Context, args pumpArgs, content string, failed bool) {
	if content == "" && !failed {
		return
	}
	// The request context is already cancelled on the disconnect and
	// provider-error paths; the partial turn still has to land.
	ctx = context.WithoutCancel(ctx)
	audit, err := json.Marshal(args.assembled.RetrievedChunks)
	if err != nil {
		audit = []byte("[]")
	}
	if err := s.conversations.AppendMessage(ctx, &model.Message{
		ID:              newID(),
		ConversationID:  args.conv.ID,
		Role:            model.RoleAssistant,
		Content:         content,
		TokensUsed:      rag.EstimateTokens(content),
		RetrievedChunks: string(audit),
		Failed:          failed,
		Ctime:           time.Now().UnixMilli(),
	}); err != nil {
		logutil.GetLogger(ctx).Error("failed to persist assistant message", zap.Error(err))
		return
	}
	title := ""
	if args.conv.Title == "" {
		title = truncateTitle(args.message)
	}
	if err := s.conversations.Touch(ctx, args.conv.ID, title, time.Now().UnixMilli()); err != nil {
		logutil.GetLogger(ctx).Warn("failed to touch conversation", zap.Error(err))
	}
}

// truncateTitle cuts on rune boundaries so a multi-byte character is
// never split.
func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) > conversationTitleMax {
		runes = runes[:conversationTitleMax]
	}
	return string(runes)
}

func (s *ChatService) retrieve(ctx context.Context, projectID, message string, topK int) ([]model.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	embedding, err := s.embedder.Embed(ctx, message, embedTaskQuery)
	if err != nil {
		return nil, err
	}
	results, err := s.vectors.Query(ctx, vectorstore.CollectionName(projectID), embedding, topK)
	if err != nil {
		return nil, err
	}
	chunks := make([]model.RetrievedChunk, 0, len(results))
	for _, item := range results {
		chunks = append(chunks, model.RetrievedChunk{
			Text:     item.Content,
			Metadata: item.Metadata,
			Score:    1 - item.Distance,
		})
	}
	return chunks, nil
}

func (s *ChatService) projectIndex(ctx context.Context, projectID string) (string, error) {
	docs, err := s.documents.ListByProject(ctx, projectID, 0, 0)
	if err != nil {
		return "", err
	}
	indexed := make([]rag.IndexedDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.Status != model.DocumentStatusReady {
			continue
		}
		indexed = append(indexed, rag.IndexedDocument{
			Filename:   doc.Filename,
			ChunkCount: doc.ChunkCount,
			TokenCount: doc.TokenCount,
		})
	}
	return rag.GenerateDocumentIndex(indexed), nil
}
