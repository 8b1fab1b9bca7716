package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/model"
)

// ResponseMargin is the token allowance reserved for the model's reply.
const ResponseMargin = 2000

// overflowRatio is the fill level past which a request is rejected instead
// of truncating the current user message or system instructions.
const overflowRatio = 0.95

// ErrContextOverflow rejects a request whose assembled context would not fit
// the model. Surfaced before any streaming begins.
var ErrContextOverflow = fmt.Errorf("assembled context exceeds model limit")

// ContextBudget is the per-request token accounting, computed fresh for
// every assembly.
type ContextBudget struct {
	ContextLimit  int
	SystemTokens  int
	RAGTokensUsed int
	RAGTokensMax  int
	HistoryBudget int
}

type AssembleInput struct {
	QueryType    QueryType
	Model        string
	UserMessage  string
	Chunks       []model.RetrievedChunk // ranked by descending similarity
	ProjectIndex string
	History      []model.Message // oldest to newest, excluding the current user message
}

type AssembleResult struct {
	Messages        []model.ChatMessage
	RetrievedChunks []model.RetrievedChunk
	TotalTokens     int
	Budget          ContextBudget
}

type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble builds the full prompt for one request: the RAG system message
// within its token budget, as much history as fits, and the current user
// message. The current user message and system instructions are never
// truncated; an oversized request fails with ErrContextOverflow.
func (a *Assembler) Assemble(ctx context.Context, in AssembleInput) (*AssembleResult, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("model", in.Model),
		zap.String("query_type", string(in.QueryType)),
	)

	strategy := StrategyFor(in.QueryType)
	contextLimit := ModelContextLimit(in.Model)
	ragTokensMax := int(float64(contextLimit) * strategy.ContextRatio)

	if ragTokensMax+ResponseMargin > contextLimit {
		logger.Warn("rag budget leaves no room for response margin",
			zap.Int("rag_tokens_max", ragTokensMax),
			zap.Int("context_limit", contextLimit),
		)
	}

	var contextParts []string
	ragTokens := 0

	if strategy.IncludeIndex && in.ProjectIndex != "" {
		// The index is counted first and never truncated away; chunks
		// lose out to it when the budget is tight.
		contextParts = append(contextParts, in.ProjectIndex)
		ragTokens += EstimateTokens(in.ProjectIndex)
	}

	var kept []model.RetrievedChunk
	if len(in.Chunks) > 0 {
		contextParts = append(contextParts, "\n# RELEVANT DOCUMENTS\n")
		for i, chunk := range in.Chunks {
			block := fmt.Sprintf("\n## [SOURCE %d] %s\n```\n%s\n```",
				i+1, model.ChunkFilename(chunk.Metadata), chunk.Text)
			blockTokens := EstimateTokens(block)
			if ragTokens+blockTokens > ragTokensMax {
				logger.Info("rag context truncated",
					zap.Int("rag_tokens", ragTokens),
					zap.Int("chunks_kept", len(kept)),
					zap.Int("chunks_dropped", len(in.Chunks)-len(kept)),
				)
				break
			}
			contextParts = append(contextParts, block)
			ragTokens += blockTokens
			kept = append(kept, chunk)
		}
	}

	var messages []model.ChatMessage
	systemTokens := 0
	if len(contextParts) > 0 {
		systemPrompt := buildSystemPrompt(strings.Join(contextParts, "\n"), in.QueryType)
		systemTokens = EstimateTokens(systemPrompt)
		messages = append(messages, model.ChatMessage{Role: model.RoleSystem, Content: systemPrompt})
	}

	userTokens := EstimateTokens(in.UserMessage)
	historyBudget := contextLimit - systemTokens - userTokens - ResponseMargin

	history, saturated := TruncateHistory(in.History, historyBudget, DefaultKeepRecent)
	if saturated {
		logger.Warn("history budget saturated, keeping only recent turns",
			zap.Int("history_budget", historyBudget),
			zap.Int("kept", len(history)),
		)
	}
	if dropped := len(in.History) - len(history); dropped > 0 {
		logger.Info("history truncated",
			zap.Int("kept", len(history)),
			zap.Int("dropped", dropped),
		)
	}
	for _, msg := range history {
		messages = append(messages, model.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: in.UserMessage})

	totalTokens := systemTokens
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		totalTokens += EstimateTokens(msg.Content)
	}

	logger.Info("context assembled",
		zap.Int("total_tokens", totalTokens),
		zap.Int("context_limit", contextLimit),
		zap.Int("rag_tokens", ragTokens),
		zap.Int("chunks_kept", len(kept)),
		zap.Int("history_messages", len(history)),
	)

	if float64(totalTokens) > float64(contextLimit)*overflowRatio {
		logger.Error("context overflow",
			zap.Int("total_tokens", totalTokens),
			zap.Int("context_limit", contextLimit),
		)
		return nil, fmt.Errorf("%w: %d tokens for a %d token limit", ErrContextOverflow, totalTokens, contextLimit)
	}

	return &AssembleResult{
		Messages:        messages,
		RetrievedChunks: kept,
		TotalTokens:     totalTokens,
		Budget: ContextBudget{
			ContextLimit:  contextLimit,
			SystemTokens:  systemTokens,
			RAGTokensUsed: ragTokens,
			RAGTokensMax:  ragTokensMax,
			HistoryBudget: historyBudget,
		},
	}, nil
}

func buildSystemPrompt(ragContext string, queryType QueryType) string {
	style := "precise and concise"
	if queryType == QueryArchitecture || queryType == QueryCodeGen {
		style = "exhaustive and detailed"
	}
	return fmt.Sprintf(`You are an expert assistant answering from the documents provided.

%s

RULES:
- Base your answer primarily on the document context above
- If the information is not in the context, use general knowledge but say so
- Cite your sources as [SOURCE X]
- For %q queries, be %s`, ragContext, string(queryType), style)
}
