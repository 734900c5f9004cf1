package retrieval

import "fmt"

// Policy holds the tunable budgets of the retrieval and context
// assembly stages. All limits are enforced before the prompt is built
// so worst-case latency and request cost stay bounded regardless of
// corpus size. Values are environment-tunable; the defaults below are
// the documented baseline.
type Policy struct {
	// MaxCandidates caps the number of hits requested from the hybrid
	// index regardless of the caller-provided top-k.
	MaxCandidates int

	// MaxDocs is the diversification cap: at most this many source
	// documents contribute chunks to one prompt.
	MaxDocs int

	// MaxPerDoc caps the chunks admitted from a single source document
	// so one source cannot monopolize the budget.
	MaxPerDoc int

	// SnippetLimit truncates each chunk text to this many characters.
	SnippetLimit int

	// BudgetChars is the hard cap on total characters of retrieved
	// context admitted into the prompt.
	BudgetChars int

	// ChunkOverhead is charged against the budget per admitted chunk,
	// covering the citation header and separators.
	ChunkOverhead int

	// ScoreGate is the relevance gate: when the best hit scores below
	// it the entire retrieval result is discarded rather than used
	// weakly.
	ScoreGate float32

	// SummaryBudget / TranscriptBudget / DeterministicBudget cap the
	// optional prompt sections independently, in characters.
	SummaryBudget       int
	TranscriptBudget    int
	DeterministicBudget int
}

// DefaultPolicy returns the documented baseline budgets.
func DefaultPolicy() Policy {
	return Policy{
		MaxCandidates:       24,
		MaxDocs:             4,
		MaxPerDoc:           3,
		SnippetLimit:        600,
		BudgetChars:         1600,
		ChunkOverhead:       50,
		ScoreGate:           0.62,
		SummaryBudget:       1200,
		TranscriptBudget:    800,
		DeterministicBudget: 900,
	}
}

// ForShortQuery tightens the budgets for short questions, which
// statistically need less grounding: fewer documents, a smaller
// character budget, and no summary or transcript sections.
func (p Policy) ForShortQuery() Policy {
	out := p
	if out.MaxDocs > 1 {
		out.MaxDocs--
	}
	out.BudgetChars = min(out.BudgetChars, 1100)
	out.SnippetLimit = min(out.SnippetLimit, 450)
	out.SummaryBudget = 0
	out.TranscriptBudget = 0
	return out
}

// CandidateCount scales the number of candidates requested with query
// length, clamped to [4, MaxCandidates]. A latency and cost
// optimization, not a correctness requirement.
func (p Policy) CandidateCount(queryLen, requested int) int {
	k := requested
	if k <= 0 {
		switch {
		case queryLen <= 40:
			k = 8
		case queryLen <= 80:
			k = 12
		default:
			k = 18
		}
	}
	if k < 4 {
		k = 4
	}
	if k > p.MaxCandidates {
		k = p.MaxCandidates
	}
	return k
}

// Validate checks the policy values are usable.
func (p Policy) Validate() error {
	if p.MaxCandidates <= 0 {
		return fmt.Errorf("maxCandidates must be positive, got %d", p.MaxCandidates)
	}
	if p.MaxDocs <= 0 {
		return fmt.Errorf("maxDocs must be positive, got %d", p.MaxDocs)
	}
	if p.MaxPerDoc <= 0 {
		return fmt.Errorf("maxPerDoc must be positive, got %d", p.MaxPerDoc)
	}
	if p.SnippetLimit <= 0 {
		return fmt.Errorf("snippetLimit must be positive, got %d", p.SnippetLimit)
	}
	if p.BudgetChars <= 0 {
		return fmt.Errorf("budgetChars must be positive, got %d", p.BudgetChars)
	}
	if p.ChunkOverhead < 0 {
		return fmt.Errorf("chunkOverhead must be non-negative, got %d", p.ChunkOverhead)
	}
	if p.ScoreGate < 0 || p.ScoreGate > 1 {
		return fmt.Errorf("scoreGate must be in [0, 1], got %f", p.ScoreGate)
	}
	return nil
}
