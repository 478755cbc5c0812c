package conversations

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/shopmind-poc/server/internal/agent/graph/nodes"
	"github.com/shopmind-poc/server/internal/agent/memory"
	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// MessagesManager owns the persistence side of one request: it logs the
// user turn before the graph runs, the assistant turn after, mirrors both
// into the embedded-exchange index, and triggers interval summarization.
type MessagesManager struct {
	store      model.MemoryStore
	embedder   model.EmbeddingProvider
	summarizer *memory.Summarizer
}

func NewMessagesManager(store model.MemoryStore, embedder model.EmbeddingProvider, summarizer *memory.Summarizer) *MessagesManager {
	return &MessagesManager{store: store, embedder: embedder, summarizer: summarizer}
}

// ProcessUserMessage appends the user turn and returns the prior
// conversation history (excluding the turn just appended). A store failure
// here is terminal for the request: no agent can plausibly run without the
// transcript.
func (mm *MessagesManager) ProcessUserMessage(ctx context.Context, in model.QueryInput) ([]*schema.Message, error) {
	history, err := mm.store.SessionMessages(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	userMsg := schema.UserMessage(in.Query)
	if err := mm.store.AppendEvent(ctx, in.SessionID, userMsg); err != nil {
		return nil, err
	}

	mm.indexExchange(ctx, in.SessionID, in.UserID, string(schema.User), in.Query)
	return history, nil
}

// SaveResponse appends the assistant turn produced by the graph. Interview
// questions are tagged so later runs can reconstruct the round counter from
// history alone. Failures are logged, not propagated: the user already has
// their reply.
func (mm *MessagesManager) SaveResponse(ctx context.Context, state *model.AgentState) {
	content := state.Response
	if content == "" {
		return
	}

	msg := schema.AssistantMessage(content, nil)
	if state.ShoppingStatus == model.ShoppingQuestion {
		msg.Extra = map[string]any{nodes.ExtraAgentKey: nodes.NodeShopping}
	}

	if err := mm.store.AppendEvent(ctx, state.SessionID, msg); err != nil {
		logx.Error().
			Err(err).
			Str("session_id", state.SessionID).
			Msg("failed to save assistant response")
		return
	}

	mm.indexExchange(ctx, state.SessionID, state.UserID, string(schema.Assistant), content)
	mm.summarizer.MaybeSummarize(ctx, state.SessionID, state.UserID)
}

// indexExchange embeds and stores one turn for similarity retrieval.
// Best-effort: an embedding or store failure leaves the transcript intact
// and only costs future recall.
func (mm *MessagesManager) indexExchange(ctx context.Context, sessionID, userID, role, content string) {
	vec, err := mm.embedder.Embed(ctx, content)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("exchange embedding failed, storing without vector")
		vec = nil
	}
	ex := model.Exchange{
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Embedding: vec,
	}
	if err := mm.store.StoreExchange(ctx, ex); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("failed to index exchange")
	}
}
