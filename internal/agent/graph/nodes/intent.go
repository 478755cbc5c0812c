package nodes

import (
	"context"

	"github.com/shopmind-poc/server/internal/agent/intent"
	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// IntentAgent labels the effective query. Vision notes are folded into the
// classified text so an image of a product can tip an ambiguous query.
type IntentAgent struct {
	classifier *intent.Classifier
}

func NewIntentAgent(classifier *intent.Classifier) *IntentAgent {
	return &IntentAgent{classifier: classifier}
}

func (a *IntentAgent) Name() string { return NodeIntent }

func (a *IntentAgent) Execute(ctx context.Context, state *model.AgentState) (model.Update, error) {
	text := state.Query
	if state.VisionNotes != "" {
		text = text + " " + state.VisionNotes
	}

	res := a.classifier.Classify(ctx, text)
	logx.Debug().
		Str("session_id", state.SessionID).
		Str("intent", string(res.Intent)).
		Float64("confidence", res.Confidence).
		Strs("matched_patterns", res.MatchedPatterns).
		Msg("intent classified")

	return model.Update{
		model.FieldIntent:           res.Intent,
		model.FieldIntentConfidence: res.Confidence,
	}, nil
}

func (a *IntentAgent) Fallback(error) model.Update {
	return model.Update{
		model.FieldIntent:           model.IntentGeneral,
		model.FieldIntentConfidence: 0.5,
	}
}
