package memory

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/cloudwego/eino/schema"

	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

const (
	summarySystemPrompt = "You summarize a shopping-assistant conversation. " +
		"Produce a short bullet list of the user's tasks, decisions and preferences. " +
		"At most 8 bullets, no preamble."

	// fallbackModelName marks summaries produced by the rule-based path.
	fallbackModelName = "rule-based"

	exchangeTruncateLen = 180
	fallbackPairCount   = 5
	fallbackKeyPoints   = 5
	minKeyPointLen      = 20
)

// Summarizer generates session summaries on a message-count interval. The
// LLM path is attempted first; any failure falls back to a deterministic
// rule-based summary, so the summarization step always succeeds.
type Summarizer struct {
	store model.MemoryStore
	llm   model.LLMProvider
	cfg   model.MemoryConfig
}

func NewSummarizer(store model.MemoryStore, llm model.LLMProvider, cfg model.MemoryConfig) *Summarizer {
	return &Summarizer{store: store, llm: llm, cfg: cfg}
}

// MaybeSummarize appends a new summary entry when the session transcript
// length has crossed the configured interval. It never returns an error:
// summary generation is incidental to the request that triggered it.
func (s *Summarizer) MaybeSummarize(ctx context.Context, sessionID, userID string) {
	if s.cfg.SummaryInterval <= 0 {
		return
	}
	count, err := s.store.MessageCount(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("summary trigger: message count unavailable")
		return
	}
	if count == 0 || count%s.cfg.SummaryInterval != 0 {
		return
	}

	messages, err := s.store.SessionMessages(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("summary trigger: transcript unavailable")
		return
	}

	entry := s.Summarize(ctx, messages)
	entry.SessionID = sessionID
	if err := s.store.AppendSummary(ctx, sessionID, entry); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to append session summary")
		return
	}
	logx.Debug().
		Str("session_id", sessionID).
		Str("model", entry.Model).
		Int("message_count", entry.MessageCount).
		Msg("session summary appended")
}

// Summarize builds a summary entry for a transcript. The text body is free
// of timestamps so identical transcripts summarize identically on the
// fallback path.
func (s *Summarizer) Summarize(ctx context.Context, messages []*schema.Message) model.SummaryEntry {
	entry := model.SummaryEntry{
		MessageCount: len(messages),
		Timestamp:    time.Now().UTC(),
	}

	if s.llm != nil {
		if text, err := s.llmSummary(ctx, messages); err == nil && strings.TrimSpace(text) != "" {
			entry.Text = strings.TrimSpace(text)
			entry.Model = s.llm.ModelName()
			return entry
		} else if err != nil {
			logx.Warn().Err(err).Msg("llm summary failed, using rule-based fallback")
		}
	}

	entry.Text = CreateSummaryText(messages)
	entry.Model = fallbackModelName
	return entry
}

func (s *Summarizer) llmSummary(ctx context.Context, messages []*schema.Message) (string, error) {
	var transcript strings.Builder
	for _, m := range messages {
		if m == nil || m.Content == "" {
			continue
		}
		switch m.Role {
		case schema.User:
			transcript.WriteString("user: " + m.Content + "\n")
		case schema.Assistant:
			transcript.WriteString("assistant: " + m.Content + "\n")
		}
	}

	res, err := s.llm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage(transcript.String()),
	})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// CreateSummaryText is the deterministic rule-based summarizer: the last
// five user/assistant exchange pairs truncated to 180 chars each, followed
// by up to five key-point lines mined from assistant replies. It never
// calls an external service and contains no hidden randomness.
func CreateSummaryText(messages []*schema.Message) string {
	pairs := pairExchanges(messages)
	if len(pairs) > fallbackPairCount {
		pairs = pairs[len(pairs)-fallbackPairCount:]
	}

	var b strings.Builder
	b.WriteString("Recent exchanges:\n")
	for _, p := range pairs {
		b.WriteString("- user: " + truncate(p.user, exchangeTruncateLen) + "\n")
		if p.assistant != "" {
			b.WriteString("  assistant: " + truncate(p.assistant, exchangeTruncateLen) + "\n")
		}
	}

	points := keyPoints(messages, fallbackKeyPoints)
	if len(points) > 0 {
		b.WriteString("Key points:\n")
		for _, kp := range points {
			b.WriteString("- " + kp + "\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

type exchangePair struct {
	user      string
	assistant string
}

func pairExchanges(messages []*schema.Message) []exchangePair {
	var pairs []exchangePair
	for _, m := range messages {
		if m == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case schema.User:
			pairs = append(pairs, exchangePair{user: strings.TrimSpace(m.Content)})
		case schema.Assistant:
			if len(pairs) > 0 && pairs[len(pairs)-1].assistant == "" {
				pairs[len(pairs)-1].assistant = strings.TrimSpace(m.Content)
			} else {
				pairs = append(pairs, exchangePair{assistant: strings.TrimSpace(m.Content)})
			}
		}
	}
	return pairs
}

// keyPoints extracts lines from assistant replies that read like substantive
// statements: at least 20 chars after bullet markup is stripped, starting
// with a letter.
func keyPoints(messages []*schema.Message, max int) []string {
	var points []string
	for _, m := range messages {
		if m == nil || m.Role != schema.Assistant {
			continue
		}
		for _, line := range strings.Split(m.Content, "\n") {
			line = stripBullet(line)
			if len(line) < minKeyPointLen {
				continue
			}
			r := []rune(line)
			if !unicode.IsLetter(r[0]) {
				continue
			}
			points = append(points, line)
			if len(points) >= max {
				return points
			}
		}
	}
	return points
}

func stripBullet(line string) string {
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"- ", "* ", "• ", "+ "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}
	// numbered bullets: "1. ", "2) "
	for i, r := range line {
		if unicode.IsDigit(r) {
			continue
		}
		if (r == '.' || r == ')') && i > 0 && i+1 < len(line) && line[i+1] == ' ' {
			return strings.TrimSpace(line[i+2:])
		}
		break
	}
	return line
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
