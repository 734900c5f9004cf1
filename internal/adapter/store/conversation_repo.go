// Package store persists conversations in Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type conversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationStore over the pool.
func NewConversationRepository(db *pgxpool.Pool) domain.ConversationStore {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) AcquireNextUnsummarized(ctx context.Context) (*domain.MessageRecord, error) {
	// Claim-by-update so concurrent workers never pick the same
	// message. summarize_started_at is reset by the janitor if a worker
	// dies mid-summary.
	query := `
		WITH next_message AS (
			SELECT id
			FROM conversation_messages
			WHERE summary IS NULL
			  AND summarize_started_at IS NULL
			  AND length(trim(content)) > 0
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE conversation_messages
		SET summarize_started_at = $1
		FROM next_message
		WHERE conversation_messages.id = next_message.id
		RETURNING conversation_messages.id, conversation_messages.conversation_id,
			conversation_messages.role, conversation_messages.content,
			COALESCE(conversation_messages.summary, ''), conversation_messages.created_at
	`

	var msg domain.MessageRecord
	err := r.db.QueryRow(ctx, query, time.Now()).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Role,
		&msg.Content,
		&msg.Summary,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to acquire unsummarized message: %w", err)
	}
	return &msg, nil
}

func (r *conversationRepository) GetMessage(ctx context.Context, id uuid.UUID) (*domain.MessageRecord, error) {
	query := `
		SELECT id, conversation_id, role, content, COALESCE(summary, ''), created_at
		FROM conversation_messages
		WHERE id = $1
	`

	var msg domain.MessageRecord
	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Role,
		&msg.Content,
		&msg.Summary,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

func (r *conversationRepository) PriorSummary(ctx context.Context, conversationID, before uuid.UUID) (string, error) {
	query := `
		SELECT summary
		FROM conversation_messages
		WHERE conversation_id = $1
		  AND summary IS NOT NULL
		  AND length(trim(summary)) > 0
		  AND created_at < (SELECT created_at FROM conversation_messages WHERE id = $2)
		ORDER BY created_at DESC
		LIMIT 1
	`

	var summary string
	err := r.db.QueryRow(ctx, query, conversationID, before).Scan(&summary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load prior summary: %w", err)
	}
	return summary, nil
}

func (r *conversationRepository) RecentTurns(ctx context.Context, conversationID uuid.UUID, limit int) ([]domain.ChatTurn, error) {
	// Fetch newest-first then reverse, so the limit drops the oldest
	// turns.
	query := `
		SELECT role, content
		FROM conversation_messages
		WHERE conversation_id = $1
		  AND length(trim(content)) > 0
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var t domain.ChatTurn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (r *conversationRepository) SaveSummary(ctx context.Context, messageID uuid.UUID, summary string) error {
	query := `
		UPDATE conversation_messages
		SET summary = $2, summarized_at = $3
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, messageID, summary, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %s not found", messageID)
	}
	return nil
}
