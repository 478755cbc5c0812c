package nodes

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/shopmind-poc/server/internal/agent/graph/prompts"
	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// WriterFallbackMessage is the user-visible reply when generation fails.
// The engine logs the failure at error level, so a fallback reply is never
// silently indistinguishable from a real generation.
const WriterFallbackMessage = "Sorry, I ran into a problem while writing your answer. Please try again in a moment."

var errEmptyGeneration = errors.New("model returned empty text")

// WriterAgent assembles the full prompt (system + memory block + recent
// history + query) and produces the terminal response text.
type WriterAgent struct {
	llm      model.LLMProvider
	cfg      model.WriterPromptConfig
	maxTurns int
}

func NewWriterAgent(llm model.LLMProvider, cfg model.WriterPromptConfig, conv model.ConversationConfig) *WriterAgent {
	return &WriterAgent{llm: llm, cfg: cfg, maxTurns: conv.Recent.MaxTurns}
}

func (a *WriterAgent) Name() string { return NodeWriter }

func (a *WriterAgent) Execute(ctx context.Context, state *model.AgentState) (model.Update, error) {
	sys, err := prompts.RenderWriterSystem(ctx, a.cfg, state)
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{schema.SystemMessage(sys)}
	messages = append(messages, recentTurns(state.History, a.maxTurns)...)
	messages = append(messages, schema.UserMessage(state.Query))

	res, err := a.llm.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		logx.Warn().Str("session_id", state.SessionID).Msg("writer produced empty text")
		return nil, errEmptyGeneration
	}

	return model.Update{
		model.FieldResponse:  text,
		model.FieldCitations: res.Citations,
		model.FieldCostUSD:   model.UsageCost(a.llm.ModelName(), res.Usage),
	}, nil
}

func (a *WriterAgent) Fallback(error) model.Update {
	return model.Update{model.FieldResponse: WriterFallbackMessage}
}

// recentTurns returns the trailing window of user/assistant turns, dropping
// anything without plain content.
func recentTurns(history []*schema.Message, maxTurns int) []*schema.Message {
	var turns []*schema.Message
	for _, m := range history {
		if m == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role != schema.User && m.Role != schema.Assistant {
			continue
		}
		turns = append(turns, m)
	}
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	return turns
}
