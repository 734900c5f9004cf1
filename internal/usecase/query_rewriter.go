package usecase

import (
	"context"
	"log/slog"
	"strings"

	"campus-orchestrator/internal/domain"
)

// QueryRewriter normalizes a raw question into a search string using a
// lightweight paraphrase model. It is an optimization on the open
// retrieval path: any failure is logged and the original text is used,
// never surfaced to the caller.
type QueryRewriter struct {
	chat   domain.ChatClient
	model  string
	logger *slog.Logger
}

// NewQueryRewriter creates a rewriter backed by the given model.
func NewQueryRewriter(chat domain.ChatClient, model string, logger *slog.Logger) *QueryRewriter {
	return &QueryRewriter{chat: chat, model: model, logger: logger}
}

const rewriteSystemPrompt = "Rewrite the user's question as a short, self-contained search query " +
	"in the same language. Expand pronouns and campus abbreviations. " +
	"Output only the rewritten query, nothing else."

// Rewrite returns the normalized search string for text, or text
// itself when the rewrite fails or produces nothing usable.
func (r *QueryRewriter) Rewrite(ctx context.Context, text string) string {
	if r == nil || r.chat == nil {
		return text
	}

	resp, err := r.chat.Chat(ctx, []domain.Message{
		{Role: "system", Content: rewriteSystemPrompt},
		{Role: "user", Content: text},
	}, domain.GenerateOptions{Model: r.model, Temperature: 0, MaxTokens: 80})
	if err != nil {
		r.logger.Warn("query_rewrite_failed", slog.String("error", err.Error()))
		return text
	}

	rewritten := strings.TrimSpace(resp.Text)
	rewritten = strings.Trim(rewritten, "\"")
	// A rewrite that balloons or vanishes is worse than the original.
	if rewritten == "" || len(rewritten) > 4*len(text)+40 {
		return text
	}
	return rewritten
}
