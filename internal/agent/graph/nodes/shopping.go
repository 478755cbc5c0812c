package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/shopmind-poc/server/internal/agent/graph/parsers"
	"github.com/shopmind-poc/server/internal/agent/graph/prompts"
	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// completionPhrases short-circuit the interview regardless of how many
// rounds have run.
var completionPhrases = []string{
	"show me results",
	"show me the results",
	"just show me",
	"that's all",
	"that is all",
	"thats all",
	"search now",
	"no more questions",
	"i'm done",
	"im done",
}

// ShoppingAgent runs the bounded purchase interview. It keeps no internal
// state across invocations; the round counter is reconstructed from history
// on every call by counting assistant turns tagged as interview questions.
type ShoppingAgent struct {
	llm model.LLMProvider
	cfg model.ShoppingConfig
}

func NewShoppingAgent(llm model.LLMProvider, cfg model.ShoppingConfig) *ShoppingAgent {
	return &ShoppingAgent{llm: llm, cfg: cfg}
}

func (a *ShoppingAgent) Name() string { return NodeShopping }

func (a *ShoppingAgent) Execute(ctx context.Context, state *model.AgentState) (model.Update, error) {
	asked := CountInterviewQuestions(state.History)

	if asked >= a.cfg.MaxRounds || WantsCompletion(state.Query) {
		return a.complete(ctx, state, asked)
	}

	turn, err := a.nextQuestion(ctx, state, asked)
	if err != nil {
		return nil, err
	}

	logx.Debug().
		Str("session_id", state.SessionID).
		Int("round", asked+1).
		Int("options", len(turn.Options)).
		Msg("interview question prepared")

	return model.Update{
		model.FieldShoppingStatus: model.ShoppingQuestion,
		model.FieldResponse:       turn.Question,
		model.FieldShoppingResult: &model.ShoppingResult{Options: turn.Options},
		model.FieldCostUSD:        turn.CostUSD,
	}, nil
}

// Fallback fails toward forward progress: a broken interview turn completes
// the interview with the original query, never strands the user mid-flow.
func (a *ShoppingAgent) Fallback(error) model.Update {
	return model.Update{
		model.FieldShoppingStatus:   model.ShoppingComplete,
		model.FieldIntent:           model.IntentProductSearch,
		model.FieldIntentConfidence: 0.75,
		model.FieldMode:             model.ModeChat,
	}
}

// complete synthesizes the search query and hands the request over to the
// writer/product path. Mode reverts to chat here so the next turn in the
// session starts from general framing; the current turn still routes
// through writer because intent routing already happened.
func (a *ShoppingAgent) complete(ctx context.Context, state *model.AgentState, asked int) (model.Update, error) {
	var costUSD float64
	query := fallbackSearchQuery(state)

	if a.llm != nil {
		res, err := a.llm.Generate(ctx, []*schema.Message{
			schema.SystemMessage(prompts.ShoppingQuerySystem),
			schema.UserMessage(interviewTranscript(state)),
		})
		if err == nil && strings.TrimSpace(res.Text) != "" {
			query = sanitizeSearchQuery(res.Text)
			costUSD = model.UsageCost(a.llm.ModelName(), res.Usage)
		} else if err != nil {
			logx.Warn().Err(err).Str("session_id", state.SessionID).Msg("search query synthesis failed, using transcript fallback")
		}
	}

	logx.Debug().
		Str("session_id", state.SessionID).
		Int("rounds_asked", asked).
		Str("search_query", query).
		Msg("interview complete")

	return model.Update{
		model.FieldShoppingStatus:   model.ShoppingComplete,
		model.FieldIntent:           model.IntentProductSearch,
		model.FieldIntentConfidence: 0.9,
		model.FieldQuery:            query,
		model.FieldMode:             model.ModeChat,
		model.FieldCostUSD:          costUSD,
	}, nil
}

type interviewTurn struct {
	Question string
	Options  []string
	CostUSD  float64
}

func (a *ShoppingAgent) nextQuestion(ctx context.Context, state *model.AgentState, asked int) (*interviewTurn, error) {
	sys, err := prompts.RenderShoppingQuestion(ctx, asked+1, a.cfg.MaxRounds, a.cfg.MaxOptions)
	if err != nil {
		return nil, err
	}

	res, err := a.llm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(sys),
		schema.UserMessage(interviewTranscript(state)),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := parsers.ParseShoppingTurn(res.Text)
	if err != nil {
		return nil, fmt.Errorf("interview turn parse: %w", err)
	}
	if len(parsed.Options) > a.cfg.MaxOptions {
		parsed.Options = parsed.Options[:a.cfg.MaxOptions]
	}
	if len(parsed.Options) < 3 {
		return nil, fmt.Errorf("interview turn has %d options, need at least 3", len(parsed.Options))
	}

	return &interviewTurn{
		Question: parsed.Question,
		Options:  parsed.Options,
		CostUSD:  model.UsageCost(a.llm.ModelName(), res.Usage),
	}, nil
}

// CountInterviewQuestions counts assistant turns tagged as interview
// questions in the transcript.
func CountInterviewQuestions(history []*schema.Message) int {
	n := 0
	for _, m := range history {
		if m == nil || m.Role != schema.Assistant {
			continue
		}
		if m.Extra == nil {
			continue
		}
		if tag, ok := m.Extra[ExtraAgentKey].(string); ok && tag == NodeShopping {
			n++
		}
	}
	return n
}

// WantsCompletion reports whether the user explicitly asked to stop the
// interview and see results.
func WantsCompletion(query string) bool {
	q := strings.ToLower(query)
	for _, phrase := range completionPhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

// interviewTranscript renders the shopping-relevant part of the
// conversation for prompt input: prior tagged questions, the user's
// answers, and the current message.
func interviewTranscript(state *model.AgentState) string {
	var b strings.Builder
	b.WriteString("<interview>\n")
	for _, m := range state.History {
		if m == nil || strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case schema.User:
			b.WriteString("user: " + m.Content + "\n")
		case schema.Assistant:
			if m.Extra != nil {
				if tag, ok := m.Extra[ExtraAgentKey].(string); ok && tag == NodeShopping {
					b.WriteString("question: " + m.Content + "\n")
				}
			}
		}
	}
	b.WriteString("current: " + state.Query + "\n")
	b.WriteString("</interview>")
	return b.String()
}

// fallbackSearchQuery joins the user's interview answers into a plain
// search string. Deterministic, used when query synthesis fails.
func fallbackSearchQuery(state *model.AgentState) string {
	parts := []string{}
	for _, m := range state.History {
		if m == nil || m.Role != schema.User {
			continue
		}
		if c := strings.TrimSpace(m.Content); c != "" {
			parts = append(parts, c)
		}
	}
	if c := strings.TrimSpace(state.Query); c != "" && !WantsCompletion(c) {
		parts = append(parts, c)
	}
	if len(parts) == 0 {
		return state.Query
	}
	return strings.Join(parts, " ")
}

func sanitizeSearchQuery(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`")
	// Keep a single line; models occasionally add commentary after the query.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
