// Package retrieval holds the pure stages of the retrieval pipeline:
// the tunable policy and the context assembly that turns scored index
// hits into a bounded, diversified prompt context.
package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"campus-orchestrator/internal/domain"
)

// ContextChunk is a deduplicated, length-capped hit admitted into the
// prompt. Index is the stable 1-based citation index.
type ContextChunk struct {
	Index int
	Title string
	URL   string
	Text  string
	Score float32
}

// dedupPrefixLen is how many leading snippet characters feed the
// duplicate key. Near-identical chunks from the same source share a
// prefix even when their tails differ.
const dedupPrefixLen = 160

// Assemble packs hits into context chunks under the policy budgets:
// group by source, cap per document, keep the best MaxDocs groups,
// then walk groups best-first deduplicating near-identical snippets
// and charging each admitted chunk against the character budget.
// Deterministic: the same hit list always yields the same chunks.
// An empty hit list yields an empty context, not an error.
func Assemble(hits []domain.SearchHit, policy Policy) []ContextChunk {
	if len(hits) == 0 {
		return nil
	}

	// Group by source key preserving first-seen order; cap per group.
	groupOrder := make([]string, 0, len(hits))
	groups := make(map[string][]domain.SearchHit)
	for _, h := range hits {
		key := h.SourceKey()
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		if len(groups[key]) < policy.MaxPerDoc {
			groups[key] = append(groups[key], h)
		}
	}

	// Rank groups by their highest-scoring hit, keep the top MaxDocs.
	// Hits arrive in fused rank order, not score order, so the best hit
	// of a group is not necessarily its first. Ties break on first-seen
	// order so assembly stays deterministic.
	best := make(map[string]float32, len(groupOrder))
	for key, hs := range groups {
		for _, h := range hs {
			if h.Score > best[key] {
				best[key] = h.Score
			}
		}
	}
	rank := make(map[string]int, len(groupOrder))
	for i, key := range groupOrder {
		rank[key] = i
	}
	sort.SliceStable(groupOrder, func(i, j int) bool {
		a, b := best[groupOrder[i]], best[groupOrder[j]]
		if a != b {
			return a > b
		}
		return rank[groupOrder[i]] < rank[groupOrder[j]]
	})
	if len(groupOrder) > policy.MaxDocs {
		groupOrder = groupOrder[:policy.MaxDocs]
	}

	budget := policy.BudgetChars
	var seen []string
	var chunks []ContextChunk

	for _, key := range groupOrder {
		for _, h := range groups[key] {
			text := h.Text
			if len(text) > policy.SnippetLimit {
				text = text[:policy.SnippetLimit]
			}
			prefix := text
			if len(prefix) > dedupPrefixLen {
				prefix = prefix[:dedupPrefixLen]
			}
			dedupKey := h.Title + "|" + prefix
			if isDuplicate(seen, dedupKey) {
				continue
			}
			cost := len(text) + policy.ChunkOverhead
			if cost > budget {
				continue
			}
			chunks = append(chunks, ContextChunk{
				Index: len(chunks) + 1,
				Title: h.Title,
				URL:   h.URL,
				Text:  text,
				Score: h.Score,
			})
			seen = append(seen, dedupKey)
			budget -= cost
		}
	}

	return chunks
}

// isDuplicate reports whether the key shares a leading-text prefix
// with an already-admitted chunk. Containment in either direction
// counts: "Room CO1 at 10:00" and "Room CO1 at 10:00 period 2" are the
// same chunk for context purposes.
func isDuplicate(seen []string, key string) bool {
	for _, s := range seen {
		if strings.HasPrefix(key, s) || strings.HasPrefix(s, key) {
			return true
		}
	}
	return false
}

// Render formats the chunks as the retrieved-context prompt section,
// one citation-indexed block per chunk. Source URLs are deliberately
// not rendered; they are returned separately so the model cannot embed
// them in the reply.
func Render(chunks []ContextChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	out := ""
	for i, c := range chunks {
		if i > 0 {
			out += "\n\n"
		}
		if c.Title != "" {
			out += fmt.Sprintf("[%d] %s\n%s", c.Index, c.Title, c.Text)
		} else {
			out += fmt.Sprintf("[%d]\n%s", c.Index, c.Text)
		}
	}
	return out
}
