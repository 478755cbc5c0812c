package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopmind-poc/server/internal/agent/model"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "length mismatch", a: []float32{1, 2}, b: []float32{1, 2, 3}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
		{name: "zero norm", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tc.want, CosineSimilarity(tc.a, tc.b), 1e-9)
		})
	}
}

func TestRankExchangesTopKThenFloor(t *testing.T) {
	t.Parallel()

	query := []float32{1, 0}
	candidates := []model.Exchange{
		{Content: "exact", Embedding: []float32{1, 0}},          // sim 1.0
		{Content: "close", Embedding: []float32{0.9, 0.1}},      // sim ~0.994
		{Content: "mid", Embedding: []float32{1, 1}},            // sim ~0.707
		{Content: "far", Embedding: []float32{0, 1}},            // sim 0
		{Content: "no embedding"},                               // skipped
		{Content: "opposite", Embedding: []float32{-1, 0}},      // sim -1
		{Content: "slightly off", Embedding: []float32{0.6, 1}}, // sim ~0.514
	}

	got := RankExchanges(query, candidates, 3, 0.45)

	// top-3 by similarity are exact, close, mid; all clear the 0.45 floor,
	// "slightly off" would pass the floor but is cut by top-K first.
	assert.Equal(t, []string{"exact", "close", "mid"}, contents(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
}

func TestRankExchangesFloorCanEmptyTheResult(t *testing.T) {
	t.Parallel()

	query := []float32{1, 0}
	candidates := []model.Exchange{
		{Content: "far", Embedding: []float32{0, 1}},
		{Content: "opposite", Embedding: []float32{-1, 0}},
	}

	got := RankExchanges(query, candidates, 5, 0.45)
	assert.Empty(t, got)
}

func TestRankExchangesNilQueryScoresZero(t *testing.T) {
	t.Parallel()

	candidates := []model.Exchange{
		{Content: "a", Embedding: []float32{1, 0}},
	}

	// a missing query vector means every candidate scores 0 and the floor
	// drops them all
	got := RankExchanges(nil, candidates, 5, 0.45)
	assert.Empty(t, got)
}

func contents(exs []model.SimilarExchange) []string {
	out := make([]string, 0, len(exs))
	for _, e := range exs {
		out = append(out, e.Content)
	}
	return out
}
