package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"campus-orchestrator/internal/domain"

	"github.com/google/uuid"
)

// Rolling summary section budgets, in characters. The summary prompt
// stays small no matter how long a conversation grows.
const (
	summaryPriorBudget      = 800
	summaryTranscriptBudget = 1500
	summaryOutputBudget     = 1200
	summaryTurnLimit        = 8
	summaryMaxTokens        = 400
)

// RollingSummaryUsecase folds one stored message into the cumulative
// conversation summary. It runs out of band of the answer path: the
// worker drains the unsummarized backlog and failures never reach the
// student.
type RollingSummaryUsecase interface {
	// Summarize updates the summary for the given message. It is
	// idempotent: a message that already carries a summary is skipped.
	Summarize(ctx context.Context, messageID uuid.UUID) error

	// SummarizeNext claims and summarizes the oldest unsummarized
	// message. Returns false when the backlog is empty.
	SummarizeNext(ctx context.Context) (bool, error)
}

type rollingSummaryUsecase struct {
	store  domain.ConversationStore
	chat   domain.ChatClient
	model  string
	logger *slog.Logger
}

// NewRollingSummaryUsecase creates a new RollingSummaryUsecase.
func NewRollingSummaryUsecase(
	store domain.ConversationStore,
	chat domain.ChatClient,
	model string,
	logger *slog.Logger,
) RollingSummaryUsecase {
	return &rollingSummaryUsecase{
		store:  store,
		chat:   chat,
		model:  model,
		logger: logger,
	}
}

const summarySystemPrompt = "You maintain a rolling summary of a conversation between a student and " +
	"the campus assistant. Merge the prior summary and the new turns into one " +
	"updated summary as short bullet points covering: topic, the student's " +
	"intentions, constraints, and open questions. Keep stable facts about the " +
	"student (program, year, preferences) and drop chit-chat. At most 10 bullets " +
	"and 1200 characters, in the conversation's language. Output only the summary."

func (u *rollingSummaryUsecase) Summarize(ctx context.Context, messageID uuid.UUID) error {
	msg, err := u.store.GetMessage(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}
	if msg == nil {
		u.logger.Warn("summary_message_missing", slog.String("message_id", messageID.String()))
		return nil
	}
	return u.summarize(ctx, msg)
}

func (u *rollingSummaryUsecase) SummarizeNext(ctx context.Context) (bool, error) {
	msg, err := u.store.AcquireNextUnsummarized(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire unsummarized message: %w", err)
	}
	if msg == nil {
		return false, nil
	}
	if err := u.summarize(ctx, msg); err != nil {
		return true, err
	}
	return true, nil
}

func (u *rollingSummaryUsecase) summarize(ctx context.Context, msg *domain.MessageRecord) error {
	if msg.Summary != "" {
		u.logger.Debug("summary_already_present", slog.String("message_id", msg.ID.String()))
		return nil
	}
	if strings.TrimSpace(msg.Content) == "" {
		// Nothing to fold in; mark the message handled so the backlog
		// scan does not revisit it.
		return u.store.SaveSummary(ctx, msg.ID, " ")
	}

	prior, err := u.store.PriorSummary(ctx, msg.ConversationID, msg.ID)
	if err != nil {
		return fmt.Errorf("failed to load prior summary: %w", err)
	}
	turns, err := u.store.RecentTurns(ctx, msg.ConversationID, summaryTurnLimit)
	if err != nil {
		return fmt.Errorf("failed to load recent turns: %w", err)
	}

	var sb strings.Builder
	if prior = clamp(prior, summaryPriorBudget); prior != "" {
		sb.WriteString("Prior summary:\n")
		sb.WriteString(prior)
		sb.WriteString("\n\n")
	}
	sb.WriteString("New turns:\n")
	sb.WriteString(clamp(renderTurns(turns), summaryTranscriptBudget))

	resp, err := u.chat.Chat(ctx, []domain.Message{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: sb.String()},
	}, domain.GenerateOptions{Model: u.model, Temperature: 0.2, MaxTokens: summaryMaxTokens})
	if err != nil {
		return fmt.Errorf("summary completion failed: %w", err)
	}
	summary := clamp(resp.Text, summaryOutputBudget)
	if summary == "" {
		return fmt.Errorf("summary completion returned an empty response")
	}

	if err := u.store.SaveSummary(ctx, msg.ID, summary); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	u.logger.Info("summary_updated",
		slog.String("message_id", msg.ID.String()),
		slog.String("conversation_id", msg.ConversationID.String()),
		slog.Int("summary_chars", len(summary)))
	return nil
}

func renderTurns(turns []domain.ChatTurn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(t.Content))
	}
	return sb.String()
}
