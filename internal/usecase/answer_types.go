package usecase

import (
	"context"

	"campus-orchestrator/internal/domain"
)

// AnswerInput encapsulates the parameters that drive one answer request.
// TopK and Model are optional overrides; zero values fall back to the
// configured defaults.
type AnswerInput struct {
	Question         string
	ConversationID   string
	UserID           string
	TopK             int
	Model            string
	RollingSummary   string
	RecentTranscript string
}

// SourceType labels which pipeline branch produced the reply.
type SourceType string

const (
	SourceTypeSchedule SourceType = "schedule"
	SourceTypeFood     SourceType = "food"
	SourceTypeRAG      SourceType = "rag"
	SourceTypeNone     SourceType = "none"
)

// AnswerSource is one cited source attached to a grounded reply.
type AnswerSource struct {
	Index int
	Title string
	URL   string
	Score float32
}

// AnswerOutput is the normalized answer returned to API clients.
// PrimaryURL is empty when no source backs the reply. Intent and
// SearchText surface the routing decision so the transport layer can
// hand discussion-board requests to the board connector.
type AnswerOutput struct {
	Reply      string
	PrimaryURL string
	BestScore  float32
	Sources    []AnswerSource
	SourceType SourceType
	Intent     domain.Intent
	SearchText string
}

// AnswerUsecase defines the contract for generating campus answers.
type AnswerUsecase interface {
	Execute(ctx context.Context, input AnswerInput) (*AnswerOutput, error)
}
