package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmind-poc/server/internal/agent/model"
)

// fakeStore is a scriptable MemoryStore: any channel can be failed
// independently.
type fakeStore struct {
	sessionExchanges []model.Exchange
	userExchanges    []model.Exchange
	recent           []model.StoredMessage
	summaries        []model.SummaryEntry
	facts            []model.Fact

	failExchanges bool
	failRecent    bool
	failSummaries bool
	failFacts     bool
}

var errStoreDown = errors.New("store down")

func (f *fakeStore) AppendEvent(context.Context, string, *schema.Message) error { return nil }

func (f *fakeStore) SessionMessages(context.Context, string) ([]*schema.Message, error) {
	return nil, nil
}

func (f *fakeStore) MessageCount(context.Context, string) (int, error) { return 0, nil }

func (f *fakeStore) StoreExchange(context.Context, model.Exchange) error { return nil }

func (f *fakeStore) SessionExchanges(_ context.Context, _ string, limit int) ([]model.Exchange, error) {
	if f.failExchanges {
		return nil, errStoreDown
	}
	if len(f.sessionExchanges) > limit {
		return f.sessionExchanges[:limit], nil
	}
	return f.sessionExchanges, nil
}

func (f *fakeStore) UserExchanges(_ context.Context, _ string, limit int, excludeSession string) ([]model.Exchange, error) {
	if f.failExchanges {
		return nil, errStoreDown
	}
	out := make([]model.Exchange, 0, limit)
	for _, ex := range f.userExchanges {
		if ex.SessionID == excludeSession {
			continue
		}
		out = append(out, ex)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) RecentMessages(_ context.Context, _ string, _ int) ([]model.StoredMessage, error) {
	if f.failRecent {
		return nil, errStoreDown
	}
	return f.recent, nil
}

func (f *fakeStore) Summaries(_ context.Context, _, _ string, _ int) ([]model.SummaryEntry, error) {
	if f.failSummaries {
		return nil, errStoreDown
	}
	return f.summaries, nil
}

func (f *fakeStore) AppendSummary(_ context.Context, _ string, entry model.SummaryEntry) error {
	f.summaries = append([]model.SummaryEntry{entry}, f.summaries...)
	return nil
}

func (f *fakeStore) Facts(_ context.Context, _ string, _ int) ([]model.Fact, error) {
	if f.failFacts {
		return nil, errStoreDown
	}
	return f.facts, nil
}

func (f *fakeStore) UpsertFact(context.Context, string, model.Fact) error { return nil }

var _ model.MemoryStore = (*fakeStore)(nil)

func testMemoryConfig() model.MemoryConfig {
	return model.MemoryConfig{
		TopK:            5,
		SimilarityFloor: 0.45,
		CandidatePool:   50,
		RecentLimit:     6,
		SummaryLimit:    3,
		FactLimit:       8,
		SummaryInterval: 8,
	}
}

func TestBuildAssemblesAllChannels(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := &fakeStore{
		sessionExchanges: []model.Exchange{
			{SessionID: "s1", Content: "about laptops", Embedding: []float32{1, 0}},
		},
		userExchanges: []model.Exchange{
			{SessionID: "s0", Content: "earlier session", Embedding: []float32{0.9, 0.1}},
		},
		recent: []model.StoredMessage{
			{Role: "user", Content: "hi", Timestamp: now},
		},
		summaries: []model.SummaryEntry{
			{SessionID: "s1", Text: "talked about laptops", Timestamp: now},
		},
		facts: []model.Fact{
			{Key: "budget", Value: "$2000", UpdatedAt: now},
		},
	}

	b := NewContextBuilder(store, testMemoryConfig())
	mc, err := b.Build(context.Background(), BuildInput{
		UserID:      "u1",
		SessionID:   "s1",
		QueryText:   "laptop",
		QueryVector: []float32{1, 0},
	})
	require.NoError(t, err)

	assert.Len(t, mc.Similar, 2)
	assert.Equal(t, "about laptops", mc.Similar[0].Content)
	assert.Len(t, mc.Recent, 1)
	assert.Len(t, mc.Summaries, 1)
	assert.Len(t, mc.Facts, 1)
}

func TestBuildDegradesPerChannel(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := &fakeStore{
		failExchanges: true,
		failFacts:     true,
		recent: []model.StoredMessage{
			{Role: "user", Content: "hi", Timestamp: now},
		},
		summaries: []model.SummaryEntry{
			{SessionID: "s1", Text: "summary", Timestamp: now},
		},
	}

	b := NewContextBuilder(store, testMemoryConfig())
	mc, err := b.Build(context.Background(), BuildInput{UserID: "u1", SessionID: "s1"})
	require.NoError(t, err)

	assert.Empty(t, mc.Similar)
	assert.Empty(t, mc.Facts)
	assert.Len(t, mc.Recent, 1)
	assert.Len(t, mc.Summaries, 1)
}

func TestBuildFailsOnlyWhenEveryChannelFails(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		failExchanges: true,
		failRecent:    true,
		failSummaries: true,
		failFacts:     true,
	}

	b := NewContextBuilder(store, testMemoryConfig())
	_, err := b.Build(context.Background(), BuildInput{UserID: "u1", SessionID: "s1"})
	assert.ErrorIs(t, err, errStoreDown)
}

func TestBuildDeduplicatesSummaries(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := &fakeStore{
		summaries: []model.SummaryEntry{
			{SessionID: "s1", Text: "laptops", Timestamp: now},
			{SessionID: "s1", Text: "laptops", Timestamp: now.Add(-time.Minute)},
			{SessionID: "s2", Text: "laptops", Timestamp: now.Add(-2 * time.Minute)},
		},
	}

	b := NewContextBuilder(store, testMemoryConfig())
	mc, err := b.Build(context.Background(), BuildInput{UserID: "u1", SessionID: "s1"})
	require.NoError(t, err)

	// same (session, text) collapses; the s2 copy survives
	require.Len(t, mc.Summaries, 2)
	assert.Equal(t, "s1", mc.Summaries[0].SessionID)
	assert.Equal(t, "s2", mc.Summaries[1].SessionID)
}

func TestCandidatePoolPrefersSessionThenUser(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		sessionExchanges: []model.Exchange{
			{SessionID: "s1", Content: "session a", Embedding: []float32{1, 0}},
			{SessionID: "s1", Content: "session b", Embedding: []float32{1, 0}},
		},
		userExchanges: []model.Exchange{
			{SessionID: "s1", Content: "dup of current session", Embedding: []float32{1, 0}},
			{SessionID: "s0", Content: "cross session", Embedding: []float32{1, 0}},
		},
	}

	b := NewContextBuilder(store, testMemoryConfig())
	pool, err := b.candidatePool(context.Background(), BuildInput{UserID: "u1", SessionID: "s1"})
	require.NoError(t, err)

	require.Len(t, pool, 3)
	assert.Equal(t, "session a", pool[0].Content)
	assert.Equal(t, "session b", pool[1].Content)
	assert.Equal(t, "cross session", pool[2].Content)
}
