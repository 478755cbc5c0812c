package model

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
)

// Exchange is one persisted turn with its embedding vector. Embedding may be
// nil when the embedding write failed; similarity search skips such rows.
type Exchange struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// MemoryStore is the document-oriented persistence the graph depends on.
// List-shaped writes (events, exchanges, summaries) must be atomic appends
// so concurrent requests for the same session never clobber each other;
// scalar facts are last-write-wins.
type MemoryStore interface {
	// AppendEvent appends one conversation message to the session transcript.
	AppendEvent(ctx context.Context, sessionID string, msg *schema.Message) error

	// SessionMessages returns the full transcript for a session, oldest first.
	SessionMessages(ctx context.Context, sessionID string) ([]*schema.Message, error)

	// MessageCount returns the transcript length for the summarization trigger.
	MessageCount(ctx context.Context, sessionID string) (int, error)

	// StoreExchange appends an embedded exchange for similarity retrieval.
	StoreExchange(ctx context.Context, ex Exchange) error

	// SessionExchanges returns up to limit exchanges of one session, most recent first.
	SessionExchanges(ctx context.Context, sessionID string, limit int) ([]Exchange, error)

	// UserExchanges returns up to limit cross-session exchanges for a user,
	// most recent first, excluding excludeSession.
	UserExchanges(ctx context.Context, userID string, limit int, excludeSession string) ([]Exchange, error)

	// RecentMessages returns the most recent turns of one session, oldest first.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]StoredMessage, error)

	// Summaries returns the newest summary entries relevant to the session
	// and/or user, newest first.
	Summaries(ctx context.Context, sessionID, userID string, limit int) ([]SummaryEntry, error)

	// AppendSummary appends one summary entry for the session.
	AppendSummary(ctx context.Context, sessionID string, entry SummaryEntry) error

	// Facts returns up to limit most-recently-updated facts for a user.
	Facts(ctx context.Context, userID string, limit int) ([]Fact, error)

	// UpsertFact stores or replaces one user-scoped fact.
	UpsertFact(ctx context.Context, userID string, fact Fact) error
}
