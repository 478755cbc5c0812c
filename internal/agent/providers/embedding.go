package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/ristretto"
	"google.golang.org/genai"

	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// GenaiEmbedder maps text to vectors via the Gemini embedding API. Results
// are cached so repeated queries (intent references, retried turns) do not
// re-pay the network call.
type GenaiEmbedder struct {
	client *genai.Client
	cfg    model.EmbeddingConfig
	cache  *ristretto.Cache
}

func NewGenaiEmbedder(client *genai.Client, cfg model.EmbeddingConfig) (*GenaiEmbedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 12,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return &GenaiEmbedder{client: client, cfg: cfg, cache: cache}, nil
}

// Embed returns the embedding vector for text. Blank input yields an
// all-zero vector of the configured dimension without a network call.
func (e *GenaiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, e.cfg.Dimension), nil
	}

	if cached, ok := e.cache.Get(text); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.cfg.Model,
		genai.Text(text),
		&genai.EmbedContentConfig{
			OutputDimensionality: genai.Ptr(int32(e.cfg.Dimension)),
		})
	if err != nil {
		logx.Error().Err(err).Str("model", e.cfg.Model).Msg("embedding request failed")
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed content: empty response from %s", e.cfg.Model)
	}

	vec := resp.Embeddings[0].Values
	e.cache.Set(text, vec, int64(len(vec)*4))
	return vec, nil
}

func (e *GenaiEmbedder) Dimension() int {
	return e.cfg.Dimension
}

var _ model.EmbeddingProvider = (*GenaiEmbedder)(nil)
