// Package vectorindex implements hybrid search over the campus
// document index stored in Postgres: dense vector similarity via
// pgvector plus a full-text lexical leg, fused by reciprocal rank.
package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"campus-orchestrator/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
)

// rrfK dampens the rank contribution in reciprocal rank fusion. 60 is
// the conventional value from the RRF paper.
const rrfK = 60.0

// legOverfetch widens each search leg beyond the requested k so the
// fusion has material from both signals to rank.
const legOverfetch = 2

type PgVectorSearcher struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPgVectorSearcher creates a hybrid searcher over the given pool.
func NewPgVectorSearcher(pool *pgxpool.Pool, logger *slog.Logger) *PgVectorSearcher {
	return &PgVectorSearcher{pool: pool, logger: logger}
}

type legHit struct {
	hit        domain.SearchHit
	similarity float32
}

// Search runs the dense and lexical legs concurrently and returns the
// fused top k, ordered by descending fused relevance. Each hit's Score
// is its cosine similarity to the query vector, so callers can apply
// an absolute relevance threshold regardless of rank fusion.
func (s *PgVectorSearcher) Search(ctx context.Context, vector []float32, text string, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	start := time.Now()
	legLimit := k * legOverfetch

	var dense, lexical []legHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dense, err = s.denseSearch(gctx, vector, legLimit)
		return err
	})
	g.Go(func() error {
		var err error
		lexical, err = s.lexicalSearch(gctx, vector, text, legLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuse(dense, lexical, k)

	s.logger.Info("hybrid_search_completed",
		slog.Int("dense_count", len(dense)),
		slog.Int("lexical_count", len(lexical)),
		slog.Int("fused_count", len(fused)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return fused, nil
}

func (s *PgVectorSearcher) denseSearch(ctx context.Context, vector []float32, limit int) ([]legHit, error) {
	query := `
		SELECT id::text, title, url, content, 1 - (embedding <=> $1) AS similarity
		FROM campus_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run dense search: %w", err)
	}
	defer rows.Close()

	var hits []legHit
	for rows.Next() {
		var h legHit
		if err := rows.Scan(&h.hit.ID, &h.hit.Title, &h.hit.URL, &h.hit.Text, &h.similarity); err != nil {
			return nil, fmt.Errorf("failed to scan dense hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dense hits: %w", err)
	}
	return hits, nil
}

// lexicalSearch ranks by full-text relevance but still reports cosine
// similarity, so both legs speak the same score language.
func (s *PgVectorSearcher) lexicalSearch(ctx context.Context, vector []float32, text string, limit int) ([]legHit, error) {
	query := `
		SELECT id::text, title, url, content, 1 - (embedding <=> $1) AS similarity
		FROM campus_chunks
		WHERE tsv @@ websearch_to_tsquery('simple', $2)
		ORDER BY ts_rank(tsv, websearch_to_tsquery('simple', $2)) DESC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), text, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run lexical search: %w", err)
	}
	defer rows.Close()

	var hits []legHit
	for rows.Next() {
		var h legHit
		if err := rows.Scan(&h.hit.ID, &h.hit.Title, &h.hit.URL, &h.hit.Text, &h.similarity); err != nil {
			return nil, fmt.Errorf("failed to scan lexical hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lexical hits: %w", err)
	}
	return hits, nil
}

// fuse merges the two legs with reciprocal rank fusion and returns the
// top k. A chunk appearing in both legs accumulates both rank
// contributions, so agreement between the signals outranks either one
// alone.
func fuse(dense, lexical []legHit, k int) []domain.SearchHit {
	type fusedHit struct {
		hit      domain.SearchHit
		rrfScore float64
	}
	fusedMap := make(map[string]*fusedHit, len(dense)+len(lexical))
	order := make([]string, 0, len(dense)+len(lexical))

	add := func(hits []legHit) {
		for rank, lh := range hits {
			f, ok := fusedMap[lh.hit.ID]
			if !ok {
				h := lh.hit
				h.Score = lh.similarity
				f = &fusedHit{hit: h}
				fusedMap[lh.hit.ID] = f
				order = append(order, lh.hit.ID)
			}
			f.rrfScore += 1.0 / (rrfK + float64(rank+1))
		}
	}
	add(dense)
	add(lexical)

	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := fusedMap[order[i]].rrfScore, fusedMap[order[j]].rrfScore
		if a != b {
			return a > b
		}
		return rank[order[i]] < rank[order[j]]
	})

	if len(order) > k {
		order = order[:k]
	}
	out := make([]domain.SearchHit, 0, len(order))
	for _, id := range order {
		out = append(out, fusedMap[id].hit)
	}
	return out
}

var _ domain.HybridSearcher = (*PgVectorSearcher)(nil)
