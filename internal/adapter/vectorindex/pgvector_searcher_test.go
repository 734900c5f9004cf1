package vectorindex

import (
	"testing"

	"campus-orchestrator/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lh(id string, similarity float32) legHit {
	return legHit{
		hit:        domain.SearchHit{ID: id, Title: "T " + id, URL: "https://campus.example/" + id, Text: "text " + id},
		similarity: similarity,
	}
}

func TestFuse_AgreementOutranksSingleLeg(t *testing.T) {
	dense := []legHit{lh("a", 0.9), lh("b", 0.8), lh("c", 0.7)}
	lexical := []legHit{lh("b", 0.8), lh("d", 0.5)}

	out := fuse(dense, lexical, 10)
	require.NotEmpty(t, out)
	assert.Equal(t, "b", out[0].ID, "hit present in both legs wins")
}

func TestFuse_ScoreIsSimilarityNotRank(t *testing.T) {
	out := fuse([]legHit{lh("a", 0.87)}, nil, 10)
	require.Len(t, out, 1)
	assert.Equal(t, float32(0.87), out[0].Score)
}

func TestFuse_TruncatesToK(t *testing.T) {
	dense := []legHit{lh("a", 0.9), lh("b", 0.8), lh("c", 0.7), lh("d", 0.6)}
	out := fuse(dense, nil, 2)
	assert.Len(t, out, 2)
}

func TestFuse_Deterministic(t *testing.T) {
	dense := []legHit{lh("a", 0.9), lh("b", 0.9)}
	lexical := []legHit{lh("c", 0.4), lh("d", 0.4)}

	first := fuse(dense, lexical, 10)
	second := fuse(dense, lexical, 10)
	assert.Equal(t, first, second)
}

func TestFuse_Empty(t *testing.T) {
	assert.Empty(t, fuse(nil, nil, 5))
}
