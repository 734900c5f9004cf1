package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatTurn is one user or assistant turn of a conversation transcript.
type ChatTurn struct {
	Role    string
	Content string
}

// MessageRecord is a stored conversation message. Summary is empty
// until the rolling summarizer has folded the message into the
// cumulative conversation summary.
type MessageRecord struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           string
	Content        string
	Summary        string
	CreatedAt      time.Time
}

// ConversationStore defines the document-store operations the pipeline
// needs: reading the prior rolling summary and recent turns of a
// conversation, and writing an updated summary onto one message.
// Summary writes are per-message and last-write-wins.
type ConversationStore interface {
	// AcquireNextUnsummarized claims the oldest message with textual
	// content and no summary yet. Returns nil, nil when there is none.
	AcquireNextUnsummarized(ctx context.Context) (*MessageRecord, error)

	// GetMessage loads one message by id. Returns nil, nil when absent.
	GetMessage(ctx context.Context, id uuid.UUID) (*MessageRecord, error)

	// PriorSummary returns the most recent non-empty summary stored on
	// a message of the conversation before the given message.
	PriorSummary(ctx context.Context, conversationID, before uuid.UUID) (string, error)

	// RecentTurns returns up to limit turns of the conversation in
	// ascending order.
	RecentTurns(ctx context.Context, conversationID uuid.UUID, limit int) ([]ChatTurn, error)

	// SaveSummary writes the summary onto the message record.
	SaveSummary(ctx context.Context, messageID uuid.UUID, summary string) error
}
