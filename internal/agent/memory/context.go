package memory

import (
	"context"

	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// BuildInput identifies the request whose memory context is being assembled.
type BuildInput struct {
	UserID      string
	SessionID   string
	QueryText   string
	QueryVector []float32
}

// ContextBuilder assembles the bundle of similar past exchanges, recent
// turns, session summaries and stored facts consumed by the writer stage.
type ContextBuilder struct {
	store model.MemoryStore
	cfg   model.MemoryConfig
}

func NewContextBuilder(store model.MemoryStore, cfg model.MemoryConfig) *ContextBuilder {
	return &ContextBuilder{store: store, cfg: cfg}
}

// Build gathers all four memory channels. Failures in one channel degrade
// to an empty slice for that channel; Build only fails when every channel
// is unreachable and the caller gets nothing usable back.
func (b *ContextBuilder) Build(ctx context.Context, in BuildInput) (*model.MemoryContext, error) {
	mc := &model.MemoryContext{}
	attempted, failures := 3, 0
	var lastErr error

	candidates, err := b.candidatePool(ctx, in)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("similarity candidate pool unavailable")
		failures, lastErr = failures+1, err
	} else {
		mc.Similar = RankExchanges(in.QueryVector, candidates, b.cfg.TopK, b.cfg.SimilarityFloor)
	}

	recent, err := b.store.RecentMessages(ctx, in.SessionID, b.cfg.RecentLimit)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("recent messages unavailable")
		failures, lastErr = failures+1, err
	} else {
		mc.Recent = recent
	}

	summaries, err := b.store.Summaries(ctx, in.SessionID, in.UserID, b.cfg.SummaryLimit)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("summaries unavailable")
		failures, lastErr = failures+1, err
	} else {
		mc.Summaries = dedupeSummaries(summaries, b.cfg.SummaryLimit)
	}

	if in.UserID != "" {
		attempted++
		facts, err := b.store.Facts(ctx, in.UserID, b.cfg.FactLimit)
		if err != nil {
			logx.Warn().Err(err).Str("user_id", in.UserID).Msg("facts unavailable")
			failures, lastErr = failures+1, err
		} else {
			mc.Facts = facts
		}
	}

	if failures == attempted {
		return nil, lastErr
	}
	return mc, nil
}

// candidatePool gathers past exchanges for similarity search: all exchanges
// of the current session first, extended with cross-session exchanges for
// the user (most recent first) until the pool cap is reached.
func (b *ContextBuilder) candidatePool(ctx context.Context, in BuildInput) ([]model.Exchange, error) {
	poolCap := b.cfg.CandidatePool
	var pool []model.Exchange

	if in.SessionID != "" {
		sess, err := b.store.SessionExchanges(ctx, in.SessionID, poolCap)
		if err != nil {
			return nil, err
		}
		pool = sess
	}

	if len(pool) < poolCap && in.UserID != "" {
		extra, err := b.store.UserExchanges(ctx, in.UserID, poolCap-len(pool), in.SessionID)
		if err != nil {
			// Session candidates alone are still usable.
			logx.Warn().Err(err).Str("user_id", in.UserID).Msg("cross-session candidates unavailable")
			return pool, nil
		}
		pool = append(pool, extra...)
	}

	return pool, nil
}

// dedupeSummaries drops duplicate (session, text) pairs, keeping the first
// (newest) occurrence.
func dedupeSummaries(entries []model.SummaryEntry, limit int) []model.SummaryEntry {
	type key struct{ session, text string }
	seen := make(map[key]struct{}, len(entries))
	out := make([]model.SummaryEntry, 0, len(entries))
	for _, e := range entries {
		k := key{e.SessionID, e.Text}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
