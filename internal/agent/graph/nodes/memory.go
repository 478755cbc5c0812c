package nodes

import (
	"context"

	"github.com/shopmind-poc/server/internal/agent/memory"
	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// MemoryAgent assembles the memory context bundle consumed by the writer.
// It runs first: retrieval is cheap context-gathering that must precede
// intent detection and generation.
type MemoryAgent struct {
	builder  *memory.ContextBuilder
	embedder model.EmbeddingProvider
}

func NewMemoryAgent(builder *memory.ContextBuilder, embedder model.EmbeddingProvider) *MemoryAgent {
	return &MemoryAgent{builder: builder, embedder: embedder}
}

func (a *MemoryAgent) Name() string { return NodeMemory }

func (a *MemoryAgent) Execute(ctx context.Context, state *model.AgentState) (model.Update, error) {
	vec, err := a.embedder.Embed(ctx, state.Query)
	if err != nil {
		// Similarity retrieval is lost but recency/summaries/facts are not.
		logx.Warn().Err(err).Str("session_id", state.SessionID).Msg("query embedding failed")
		vec = nil
	}

	mc, err := a.builder.Build(ctx, memory.BuildInput{
		UserID:      state.UserID,
		SessionID:   state.SessionID,
		QueryText:   state.Query,
		QueryVector: vec,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().
		Str("session_id", state.SessionID).
		Int("similar", len(mc.Similar)).
		Int("recent", len(mc.Recent)).
		Int("summaries", len(mc.Summaries)).
		Int("facts", len(mc.Facts)).
		Msg("memory context assembled")

	return model.Update{model.FieldMemoryContext: mc}, nil
}

func (a *MemoryAgent) Fallback(error) model.Update {
	return model.Update{model.FieldMemoryContext: &model.MemoryContext{}}
}
