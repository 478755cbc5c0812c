package memory

import (
	"math"
	"sort"

	"github.com/shopmind-poc/server/internal/agent/model"
)

// CosineSimilarity computes dot(a,b) / (|a| * |b|). Mismatched lengths or a
// zero-norm vector yield 0 rather than an error, so degenerate embeddings
// never abort retrieval.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RankExchanges scores candidates against the query vector, keeps the topK
// by similarity, then drops everything at or below the floor. The floor is
// applied after the top-K cut, so the result can legitimately be empty even
// with abundant candidates.
func RankExchanges(query []float32, candidates []model.Exchange, topK int, floor float64) []model.SimilarExchange {
	scored := make([]model.SimilarExchange, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			continue
		}
		scored = append(scored, model.SimilarExchange{
			Role:       c.Role,
			Content:    c.Content,
			Similarity: CosineSimilarity(query, c.Embedding),
			Timestamp:  c.Timestamp,
			SessionID:  c.SessionID,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}

	kept := scored[:0]
	for _, s := range scored {
		if s.Similarity > floor {
			kept = append(kept, s)
		}
	}
	return kept
}
