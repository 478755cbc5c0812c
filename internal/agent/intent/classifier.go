package intent

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"

	"github.com/dgraph-io/ristretto"

	"github.com/shopmind-poc/server/internal/agent/memory"
	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

const (
	ModePattern   = "pattern"
	ModeEmbedding = "embedding"

	baseConfidence    = 0.5
	perMatchIncrement = 0.15
)

// productSearchPatterns is the fixed ordered rule set tagged to the
// product_search intent. Order is part of the contract: matched pattern
// names are reported in this order.
var productSearchPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"buy_verb", regexp.MustCompile(`(?i)\b(buy|buying|purchase|order|shop for)\b`)},
	{"looking_for", regexp.MustCompile(`(?i)\b(looking for|in the market for|shopping for)\b`)},
	{"recommend_product", regexp.MustCompile(`(?i)\b(recommend|suggest)\b.{0,40}\b(product|laptop|phone|headphones|camera|watch|tablet|shoes|model|brand)\b`)},
	{"best_for", regexp.MustCompile(`(?i)\bbest\b.{0,40}\b(for|under)\b`)},
	{"price_query", regexp.MustCompile(`(?i)\b(price of|how much (is|does|are)|cost of)\b`)},
	{"budget", regexp.MustCompile(`(?i)\b(budget|cheap|affordable|under \$?\d+)\b`)},
	{"need_item", regexp.MustCompile(`(?i)\bi need (a|an|some|new)\b`)},
	{"compare", regexp.MustCompile(`(?i)\b(compare|vs\.?|versus)\b.{0,40}\b(model|brand|product)\b`)},
}

// references are the canonical descriptions embedded once per label for the
// embedding-similarity mode.
var references = []struct {
	label       model.Intent
	description string
}{
	{model.IntentGeneral, "a general question, chit-chat, or a request for information that is not about buying anything"},
	{model.IntentProductSearch, "the user wants to find, compare, or buy a product and expects product recommendations"},
}

// Result is the classification outcome.
type Result struct {
	Intent          model.Intent
	Confidence      float64
	MatchedPatterns []string
}

// Classifier maps free text to an intent label. Pattern mode is the
// default; embedding mode ranks the query against per-label reference
// embeddings and falls back to patterns when the provider is unavailable.
type Classifier struct {
	mode     string
	embedder model.EmbeddingProvider
	cache    *ristretto.Cache
}

func NewClassifier(cfg model.IntentConfig, embedder model.EmbeddingProvider) (*Classifier, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 10,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("intent embedding cache: %w", err)
	}
	mode := cfg.Mode
	if mode != ModeEmbedding {
		mode = ModePattern
	}
	return &Classifier{mode: mode, embedder: embedder, cache: cache}, nil
}

// Classify is deterministic and side-effect-free aside from the external
// embedding call in embedding mode.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	if c.mode == ModeEmbedding && c.embedder != nil {
		if res, err := c.classifyByEmbedding(ctx, text); err == nil {
			return res
		} else {
			logx.Warn().Err(err).Msg("embedding intent classification failed, falling back to patterns")
		}
	}
	return c.classifyByPatterns(text)
}

func (c *Classifier) classifyByPatterns(text string) Result {
	var matched []string
	for _, p := range productSearchPatterns {
		if p.re.MatchString(text) {
			matched = append(matched, p.name)
		}
	}
	if len(matched) == 0 {
		return Result{Intent: model.IntentGeneral, Confidence: baseConfidence}
	}
	conf := baseConfidence + perMatchIncrement*float64(len(matched))
	if conf > 1.0 {
		conf = 1.0
	}
	return Result{Intent: model.IntentProductSearch, Confidence: conf, MatchedPatterns: matched}
}

func (c *Classifier) classifyByEmbedding(ctx context.Context, text string) (Result, error) {
	queryVec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return Result{}, err
	}

	best := Result{Intent: model.IntentGeneral, Confidence: baseConfidence}
	bestSim := -2.0
	for _, ref := range references {
		refVec, err := c.referenceEmbedding(ctx, ref.label, ref.description)
		if err != nil {
			return Result{}, err
		}
		sim := memory.CosineSimilarity(queryVec, refVec)
		if sim > bestSim {
			bestSim = sim
			conf := (sim + 1) / 2
			if conf < 0 {
				conf = 0
			}
			if conf > 1 {
				conf = 1
			}
			best = Result{Intent: ref.label, Confidence: conf}
		}
	}
	return best, nil
}

// referenceEmbedding returns the cached embedding for a label. The cache key
// hashes the description text together with the label, so editing a
// reference description invalidates its stale entry without an explicit
// flush.
func (c *Classifier) referenceEmbedding(ctx context.Context, label model.Intent, description string) ([]float32, error) {
	key := refCacheKey(label, description)
	if v, ok := c.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}
	vec, err := c.embedder.Embed(ctx, description)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec, int64(len(vec)*4))
	c.cache.Wait()
	return vec, nil
}

// InvalidateEmbeddings clears all cached reference embeddings, for use when
// the classifier config is reloaded wholesale.
func (c *Classifier) InvalidateEmbeddings() {
	c.cache.Clear()
}

func refCacheKey(label model.Intent, description string) string {
	h := fnv.New64a()
	h.Write([]byte(description))
	return fmt.Sprintf("intent:%s:%x", label, h.Sum64())
}
