package domain

import "context"

// SearchHit is a single scored candidate returned by the hybrid index.
// Score is an absolute similarity in [0, 1] usable against a fixed
// threshold; result ordering may follow a separate fused ranking, so
// Score is not necessarily monotone over a result list.
type SearchHit struct {
	ID    string
	Score float32
	Text  string
	Title string
	URL   string
}

// SourceKey groups near-identical chunks that come from the same
// document: URL first, title as fallback, id as a last resort.
func (h SearchHit) SourceKey() string {
	if h.URL != "" {
		return h.URL
	}
	if h.Title != "" {
		return h.Title
	}
	return h.ID
}

// HybridSearcher defines the interface to the vector index service.
// Results are ordered most-relevant first by the index's own ranking.
type HybridSearcher interface {
	Search(ctx context.Context, vector []float32, text string, k int) ([]SearchHit, error)
}
