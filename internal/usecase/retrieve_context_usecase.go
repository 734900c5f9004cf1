package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campus-orchestrator/internal/domain"
	"campus-orchestrator/internal/usecase/retrieval"
)

// RetrieveContextInput defines the input parameters for RetrieveContext.
// SearchText is the (possibly rewritten) text sent to the index; Query
// carries the original request for budget decisions.
type RetrieveContextInput struct {
	Query      domain.Query
	SearchText string
	TopK       int
}

// RetrieveContextOutput defines the output for RetrieveContext. When the
// relevance gate rejects the result set, Chunks is empty, Gated is true
// and BestScore still reports the rejected top score.
type RetrieveContextOutput struct {
	Chunks    []retrieval.ContextChunk
	BestScore float32
	Gated     bool
}

// RetrieveContextUsecase defines the interface for retrieving context.
type RetrieveContextUsecase interface {
	Execute(ctx context.Context, input RetrieveContextInput) (*RetrieveContextOutput, error)
}

type retrieveContextUsecase struct {
	encoder  domain.VectorEncoder
	searcher domain.HybridSearcher
	policy   retrieval.Policy
	logger   *slog.Logger
}

// NewRetrieveContextUsecase creates a new RetrieveContextUsecase.
func NewRetrieveContextUsecase(
	encoder domain.VectorEncoder,
	searcher domain.HybridSearcher,
	policy retrieval.Policy,
	logger *slog.Logger,
) RetrieveContextUsecase {
	return &retrieveContextUsecase{
		encoder:  encoder,
		searcher: searcher,
		policy:   policy,
		logger:   logger,
	}
}

func (u *retrieveContextUsecase) Execute(ctx context.Context, input RetrieveContextInput) (*RetrieveContextOutput, error) {
	text := input.SearchText
	if text == "" {
		text = input.Query.Text
	}
	if text == "" {
		return nil, fmt.Errorf("query is empty")
	}

	policy := u.policy
	if input.Query.IsShort() {
		policy = policy.ForShortQuery()
	}
	k := policy.CandidateCount(len(input.Query.Text), input.TopK)

	start := time.Now()
	vectors, err := u.encoder.Encode(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}

	hits, err := u.searcher.Search(ctx, vectors[0], text, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	// Hits arrive in fused rank order while Score stays absolute
	// similarity, so the best similarity can sit below rank 1.
	var bestScore float32
	for _, h := range hits {
		if h.Score > bestScore {
			bestScore = h.Score
		}
	}

	// Relevance gate: when no hit reaches the threshold the whole
	// result set is discarded rather than answered from weakly.
	if bestScore < policy.ScoreGate {
		u.logger.Info("retrieval_gated",
			slog.Float64("best_score", float64(bestScore)),
			slog.Float64("score_gate", float64(policy.ScoreGate)),
			slog.Int("hit_count", len(hits)),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return &RetrieveContextOutput{BestScore: bestScore, Gated: true}, nil
	}

	chunks := retrieval.Assemble(hits, policy)

	u.logger.Info("retrieval_completed",
		slog.Float64("best_score", float64(bestScore)),
		slog.Int("hit_count", len(hits)),
		slog.Int("chunk_count", len(chunks)),
		slog.Int("requested_k", k),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &RetrieveContextOutput{Chunks: chunks, BestScore: bestScore}, nil
}
