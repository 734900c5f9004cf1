package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"campus-orchestrator/internal/domain"
)

// titleMaxChars bounds the generated conversation title.
const titleMaxChars = 60

// TitleUsecase generates a short conversation title from the first
// exchange, used by the chat UI's conversation list.
type TitleUsecase interface {
	Generate(ctx context.Context, question, reply string) (string, error)
}

type titleUsecase struct {
	chat   domain.ChatClient
	model  string
	logger *slog.Logger
}

// NewTitleUsecase creates a new TitleUsecase.
func NewTitleUsecase(chat domain.ChatClient, model string, logger *slog.Logger) TitleUsecase {
	return &titleUsecase{chat: chat, model: model, logger: logger}
}

const titleSystemPrompt = "Write a title for this conversation in at most five words, " +
	"in the language of the exchange. No quotes, no trailing punctuation. " +
	"Output only the title."

func (u *titleUsecase) Generate(ctx context.Context, question, reply string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is required")
	}

	var sb strings.Builder
	sb.WriteString("user: ")
	sb.WriteString(clamp(question, 400))
	if reply = strings.TrimSpace(reply); reply != "" {
		sb.WriteString("\nassistant: ")
		sb.WriteString(clamp(reply, 400))
	}

	resp, err := u.chat.Chat(ctx, []domain.Message{
		{Role: "system", Content: titleSystemPrompt},
		{Role: "user", Content: sb.String()},
	}, domain.GenerateOptions{Model: u.model, Temperature: 0.3, MaxTokens: 30})
	if err != nil {
		return "", fmt.Errorf("title completion failed: %w", err)
	}

	title := strings.Trim(strings.TrimSpace(resp.Text), "\"'")
	title = strings.TrimRight(title, ".!?")
	if title == "" {
		return "", fmt.Errorf("title completion returned an empty response")
	}
	if len(title) > titleMaxChars {
		title = strings.TrimSpace(title[:titleMaxChars])
	}

	u.logger.Debug("title_generated", slog.Int("title_chars", len(title)))
	return title, nil
}
