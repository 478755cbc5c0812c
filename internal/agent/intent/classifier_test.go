package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmind-poc/server/internal/agent/model"
)

func newPatternClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(model.IntentConfig{Mode: ModePattern}, nil)
	require.NoError(t, err)
	return c
}

func TestClassifyPatterns(t *testing.T) {
	t.Parallel()

	c := newPatternClassifier(t)

	tests := []struct {
		name        string
		text        string
		wantIntent  model.Intent
		wantConf    float64
		wantMatched []string
	}{
		{
			name:       "general chit chat",
			text:       "how has your day been?",
			wantIntent: model.IntentGeneral,
			wantConf:   0.5,
		},
		{
			name:        "single pattern",
			text:        "I want to buy something nice",
			wantIntent:  model.IntentProductSearch,
			wantConf:    0.65,
			wantMatched: []string{"buy_verb"},
		},
		{
			name:        "two patterns",
			text:        "looking for the best laptop for video editing",
			wantIntent:  model.IntentProductSearch,
			wantConf:    0.8,
			wantMatched: []string{"looking_for", "best_for"},
		},
		{
			name:        "three patterns",
			text:        "I'm shopping for an affordable laptop, what's the best one for school?",
			wantIntent:  model.IntentProductSearch,
			wantConf:    0.95,
			wantMatched: []string{"looking_for", "best_for", "budget"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := c.Classify(context.Background(), tc.text)
			assert.Equal(t, tc.wantIntent, got.Intent)
			if tc.wantMatched != nil {
				assert.Equal(t, tc.wantMatched, got.MatchedPatterns)
				assert.InDelta(t, 0.5+0.15*float64(len(tc.wantMatched)), got.Confidence, 1e-9)
			} else {
				assert.InDelta(t, tc.wantConf, got.Confidence, 1e-9)
			}
		})
	}
}

func TestClassifyConfidenceCapsAtOne(t *testing.T) {
	t.Parallel()

	c := newPatternClassifier(t)
	// trip enough patterns that raw confidence would exceed 1.0
	text := "I want to buy the best laptop under $1000, I'm shopping for something cheap, " +
		"i need a new one, what's the price of the top model, compare vs the other brand"
	got := c.Classify(context.Background(), text)

	assert.Equal(t, model.IntentProductSearch, got.Intent)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	assert.GreaterOrEqual(t, len(got.MatchedPatterns), 4)
}

func TestClassifyMatchedPatternsFollowRuleOrder(t *testing.T) {
	t.Parallel()

	c := newPatternClassifier(t)
	got := c.Classify(context.Background(), "what's the price of the laptop you'd recommend? my budget is tight")

	// reported names keep rule-table order regardless of position in the text
	require.NotEmpty(t, got.MatchedPatterns)
	assert.True(t, sortedByRuleOrder(got.MatchedPatterns), "got %v", got.MatchedPatterns)
}

func sortedByRuleOrder(names []string) bool {
	rank := make(map[string]int, len(productSearchPatterns))
	for i, p := range productSearchPatterns {
		rank[p.name] = i
	}
	for i := 1; i < len(names); i++ {
		if rank[names[i-1]] > rank[names[i]] {
			return false
		}
	}
	return true
}

// fixedEmbedder returns canned vectors per text prefix.
type fixedEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for prefix, vec := range f.vectors {
		if strings.HasPrefix(text, prefix) {
			return vec, nil
		}
	}
	return []float32{0, 1}, nil
}

func (f *fixedEmbedder) Dimension() int { return 2 }

func TestClassifyEmbeddingMode(t *testing.T) {
	t.Parallel()

	embedder := &fixedEmbedder{vectors: map[string][]float32{
		"the user wants to find": {1, 0}, // product_search reference
		"a general question":     {0, 1}, // general reference
		"find me":                {1, 0}, // query aligned with product_search
	}}
	c, err := NewClassifier(model.IntentConfig{Mode: ModeEmbedding}, embedder)
	require.NoError(t, err)

	got := c.Classify(context.Background(), "find me a laptop")

	assert.Equal(t, model.IntentProductSearch, got.Intent)
	// confidence is (sim+1)/2; identical direction means sim 1.0
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestClassifyEmbeddingFailureFallsBackToPatterns(t *testing.T) {
	t.Parallel()

	embedder := &fixedEmbedder{err: errors.New("embedding service down")}
	c, err := NewClassifier(model.IntentConfig{Mode: ModeEmbedding}, embedder)
	require.NoError(t, err)

	got := c.Classify(context.Background(), "I want to buy a phone")

	assert.Equal(t, model.IntentProductSearch, got.Intent)
	assert.Equal(t, []string{"buy_verb"}, got.MatchedPatterns)
}

func TestReferenceEmbeddingsAreCached(t *testing.T) {
	t.Parallel()

	embedder := &fixedEmbedder{vectors: map[string][]float32{}}
	c, err := NewClassifier(model.IntentConfig{Mode: ModeEmbedding}, embedder)
	require.NoError(t, err)

	c.Classify(context.Background(), "anything at all")
	callsAfterFirst := embedder.calls
	c.Classify(context.Background(), "anything at all")

	// the second pass re-embeds only the query, not the two references
	assert.Equal(t, callsAfterFirst+1, embedder.calls)
}
