package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/shopmind-poc/server/internal/agent/model"
	errx "github.com/shopmind-poc/server/internal/core/errorx"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

const (
	// overfetchFactor compensates for rows dropped by post-read filtering
	// (excluded sessions) without loading whole lists.
	overfetchFactor = 4

	// summaryScanSessions bounds how many of a user's sessions the
	// cross-session summary lookup visits.
	summaryScanSessions = 20
)

// RedisMemoryStore persists transcripts, embedded exchanges, summaries and
// facts in Redis. Session-scoped keys carry a sliding TTL refreshed on every
// write; user-scoped keys are long-term memory and never expire.
type RedisMemoryStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisMemoryStore(rdb redis.Cmdable, ttl time.Duration) *RedisMemoryStore {
	return &RedisMemoryStore{rdb: rdb, ttl: ttl}
}

func (r *RedisMemoryStore) sessionMessagesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

func (r *RedisMemoryStore) sessionExchangesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:exchanges", sessionID)
}

func (r *RedisMemoryStore) sessionSummariesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:summaries", sessionID)
}

func (r *RedisMemoryStore) userExchangesKey(userID string) string {
	return fmt.Sprintf("user:%s:exchanges", userID)
}

func (r *RedisMemoryStore) userSessionsKey(userID string) string {
	return fmt.Sprintf("user:%s:sessions", userID)
}

func (r *RedisMemoryStore) userFactsKey(userID string) string {
	return fmt.Sprintf("user:%s:facts", userID)
}

func (r *RedisMemoryStore) AppendEvent(ctx context.Context, sessionID string, msg *schema.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.sessionMessagesKey(sessionID)

	// append message
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	return r.touch(ctx, key)
}

// touch extends the sliding TTL on a session-scoped key.
func (r *RedisMemoryStore) touch(ctx context.Context, key string) error {
	if r.ttl <= 0 {
		return nil
	}
	if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
		return errx.WrapRedis(err)
	} else if !ok {
		logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
	}
	return nil
}

func (r *RedisMemoryStore) SessionMessages(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	key := r.sessionMessagesKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []*schema.Message{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session transcript from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

func (r *RedisMemoryStore) MessageCount(ctx context.Context, sessionID string) (int, error) {
	key := r.sessionMessagesKey(sessionID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

func (r *RedisMemoryStore) StoreExchange(ctx context.Context, ex model.Exchange) error {
	b, err := json.Marshal(ex)
	if err != nil {
		logx.Error().Err(err).Str("session_id", ex.SessionID).Msg("failed to marshal exchange")
		return fmt.Errorf("marshal exchange: %w", err)
	}

	sessionKey := r.sessionExchangesKey(ex.SessionID)
	if err := r.rdb.RPush(ctx, sessionKey, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", sessionKey).Msg("failed to push exchange to redis")
		return errx.WrapRedis(err)
	}
	if err := r.touch(ctx, sessionKey); err != nil {
		return err
	}

	if ex.UserID == "" {
		return nil
	}
	userKey := r.userExchangesKey(ex.UserID)
	if err := r.rdb.RPush(ctx, userKey, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", userKey).Msg("failed to push exchange to user history")
		return errx.WrapRedis(err)
	}
	if err := r.rdb.SAdd(ctx, r.userSessionsKey(ex.UserID), ex.SessionID).Err(); err != nil {
		logx.Error().Err(err).Str("user_id", ex.UserID).Msg("failed to index session for user")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisMemoryStore) SessionExchanges(ctx context.Context, sessionID string, limit int) ([]model.Exchange, error) {
	if limit <= 0 {
		return nil, nil
	}
	exs, err := r.readExchanges(ctx, r.sessionExchangesKey(sessionID), limit)
	if err != nil {
		return nil, err
	}
	reverse(exs)
	return exs, nil
}

func (r *RedisMemoryStore) UserExchanges(ctx context.Context, userID string, limit int, excludeSession string) ([]model.Exchange, error) {
	if limit <= 0 {
		return nil, nil
	}
	exs, err := r.readExchanges(ctx, r.userExchangesKey(userID), limit*overfetchFactor)
	if err != nil {
		return nil, err
	}

	filtered := make([]model.Exchange, 0, limit)
	for i := len(exs) - 1; i >= 0 && len(filtered) < limit; i-- {
		if exs[i].SessionID == excludeSession {
			continue
		}
		filtered = append(filtered, exs[i])
	}
	return filtered, nil
}

func (r *RedisMemoryStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]model.StoredMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	exs, err := r.readExchanges(ctx, r.sessionExchangesKey(sessionID), limit)
	if err != nil {
		return nil, err
	}

	msgs := make([]model.StoredMessage, 0, len(exs))
	for _, ex := range exs {
		msgs = append(msgs, model.StoredMessage{
			Role:      ex.Role,
			Content:   ex.Content,
			Timestamp: ex.Timestamp,
		})
	}
	return msgs, nil
}

// readExchanges returns the last limit exchanges of a list, oldest first.
func (r *RedisMemoryStore) readExchanges(ctx context.Context, key string, limit int) ([]model.Exchange, error) {
	rows, err := r.rdb.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load exchanges from redis")
		return nil, errx.WrapRedis(err)
	}

	exs := make([]model.Exchange, 0, len(rows))
	for i, s := range rows {
		var ex model.Exchange
		if err := json.Unmarshal([]byte(s), &ex); err != nil {
			logx.Error().Err(err).Str("key", key).Int("index", i).Msg("failed to unmarshal exchange")
			return nil, fmt.Errorf("unmarshal exchange at index %d: %w", i, err)
		}
		exs = append(exs, ex)
	}
	return exs, nil
}

func (r *RedisMemoryStore) Summaries(ctx context.Context, sessionID, userID string, limit int) ([]model.SummaryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	entries, err := r.readSummaries(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	if userID != "" {
		sessions, err := r.rdb.SMembers(ctx, r.userSessionsKey(userID)).Result()
		if err != nil && err != redis.Nil {
			logx.Error().Err(err).Str("user_id", userID).Msg("failed to list user sessions")
			return nil, errx.WrapRedis(err)
		}
		if len(sessions) > summaryScanSessions {
			sessions = sessions[:summaryScanSessions]
		}
		for _, sid := range sessions {
			if sid == sessionID {
				continue
			}
			more, err := r.readSummaries(ctx, sid, limit)
			if err != nil {
				return nil, err
			}
			entries = append(entries, more...)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *RedisMemoryStore) readSummaries(ctx context.Context, sessionID string, limit int) ([]model.SummaryEntry, error) {
	key := r.sessionSummariesKey(sessionID)
	rows, err := r.rdb.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load summaries from redis")
		return nil, errx.WrapRedis(err)
	}

	entries := make([]model.SummaryEntry, 0, len(rows))
	for i, s := range rows {
		var e model.SummaryEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			logx.Error().Err(err).Str("key", key).Int("index", i).Msg("failed to unmarshal summary")
			return nil, fmt.Errorf("unmarshal summary at index %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *RedisMemoryStore) AppendSummary(ctx context.Context, sessionID string, entry model.SummaryEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal summary")
		return fmt.Errorf("marshal summary: %w", err)
	}
	key := r.sessionSummariesKey(sessionID)
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push summary to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisMemoryStore) Facts(ctx context.Context, userID string, limit int) ([]model.Fact, error) {
	if limit <= 0 {
		return nil, nil
	}
	key := r.userFactsKey(userID)
	rows, err := r.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load facts from redis")
		return nil, errx.WrapRedis(err)
	}

	facts := make([]model.Fact, 0, len(rows))
	for field, s := range rows {
		var f model.Fact
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			logx.Error().Err(err).Str("key", key).Str("field", field).Msg("failed to unmarshal fact")
			return nil, fmt.Errorf("unmarshal fact %q: %w", field, err)
		}
		facts = append(facts, f)
	}

	sort.SliceStable(facts, func(i, j int) bool {
		return facts[i].UpdatedAt.After(facts[j].UpdatedAt)
	})
	if len(facts) > limit {
		facts = facts[:limit]
	}
	return facts, nil
}

func (r *RedisMemoryStore) UpsertFact(ctx context.Context, userID string, fact model.Fact) error {
	b, err := json.Marshal(fact)
	if err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to marshal fact")
		return fmt.Errorf("marshal fact: %w", err)
	}
	key := r.userFactsKey(userID)
	if err := r.rdb.HSet(ctx, key, fact.Key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store fact in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func reverse(exs []model.Exchange) {
	for i, j := 0, len(exs)-1; i < j; i, j = i+1, j-1 {
		exs[i], exs[j] = exs[j], exs[i]
	}
}

var _ model.MemoryStore = (*RedisMemoryStore)(nil)
