package retrieval_test

import (
	"testing"

	"campus-orchestrator/internal/usecase/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_Validates(t *testing.T) {
	require.NoError(t, retrieval.DefaultPolicy().Validate())
}

func TestPolicy_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*retrieval.Policy)
	}{
		{"zero maxCandidates", func(p *retrieval.Policy) { p.MaxCandidates = 0 }},
		{"zero maxDocs", func(p *retrieval.Policy) { p.MaxDocs = 0 }},
		{"zero maxPerDoc", func(p *retrieval.Policy) { p.MaxPerDoc = 0 }},
		{"zero snippetLimit", func(p *retrieval.Policy) { p.SnippetLimit = 0 }},
		{"zero budget", func(p *retrieval.Policy) { p.BudgetChars = 0 }},
		{"negative overhead", func(p *retrieval.Policy) { p.ChunkOverhead = -1 }},
		{"gate above one", func(p *retrieval.Policy) { p.ScoreGate = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := retrieval.DefaultPolicy()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestPolicy_ForShortQuery(t *testing.T) {
	p := retrieval.DefaultPolicy()
	short := p.ForShortQuery()

	assert.Equal(t, p.MaxDocs-1, short.MaxDocs)
	assert.LessOrEqual(t, short.BudgetChars, 1100)
	assert.LessOrEqual(t, short.SnippetLimit, 450)
	assert.Zero(t, short.SummaryBudget)
	assert.Zero(t, short.TranscriptBudget)
	assert.Equal(t, p.DeterministicBudget, short.DeterministicBudget)
}

func TestPolicy_CandidateCount(t *testing.T) {
	p := retrieval.DefaultPolicy()

	tests := []struct {
		name      string
		queryLen  int
		requested int
		want      int
	}{
		{"tiny query", 20, 0, 8},
		{"short query", 60, 0, 12},
		{"long query", 120, 0, 18},
		{"explicit request", 120, 10, 10},
		{"clamped to floor", 120, 2, 4},
		{"clamped to ceiling", 120, 200, p.MaxCandidates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CandidateCount(tt.queryLen, tt.requested))
		})
	}
}
