package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// GenerateResult is the narrow contract the graph needs from an LLM call.
type GenerateResult struct {
	Text      string
	Citations []Citation
	Usage     *schema.TokenUsage
	// Raw keeps the provider message for callers that need Extra metadata.
	Raw *schema.Message
}

// LLMProvider generates a completion for an assembled message context.
// Implementations suspend on the network call; they must not retain the
// message slice.
type LLMProvider interface {
	Generate(ctx context.Context, messages []*schema.Message) (*GenerateResult, error)
	ModelName() string
}

// EmbeddingProvider maps text to a fixed-dimension vector. Empty input must
// return an all-zero vector of the provider's dimension, never an error.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// ProductSearcher is the external product lookup collaborator.
type ProductSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]ProductCard, error)
}
