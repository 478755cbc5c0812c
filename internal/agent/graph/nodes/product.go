package nodes

import (
	"context"

	"github.com/shopmind-poc/server/internal/agent/graph/parsers"
	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

const productCardLimit = 5

// ProductAgent runs after the writer: it mines product mentions out of the
// generated response and attaches lookup results for the effective query.
type ProductAgent struct {
	searcher model.ProductSearcher
}

func NewProductAgent(searcher model.ProductSearcher) *ProductAgent {
	return &ProductAgent{searcher: searcher}
}

func (a *ProductAgent) Name() string { return NodeProduct }

func (a *ProductAgent) Execute(ctx context.Context, state *model.AgentState) (model.Update, error) {
	mentions := parsers.ExtractProductMentions(state.Response)

	cards, err := a.searcher.Search(ctx, state.Query, productCardLimit)
	if err != nil {
		// Mentions were mined locally; keep them even when lookup fails.
		logx.Warn().Err(err).Str("session_id", state.SessionID).Msg("product lookup failed")
		return model.Update{model.FieldStructuredProducts: mentions}, nil
	}

	logx.Debug().
		Str("session_id", state.SessionID).
		Int("mentions", len(mentions)).
		Int("cards", len(cards)).
		Msg("product extraction done")

	return model.Update{
		model.FieldProductCards:       cards,
		model.FieldStructuredProducts: mentions,
	}, nil
}

func (a *ProductAgent) Fallback(error) model.Update {
	return model.Update{}
}
