package graph

import (
	"context"
	"fmt"

	"github.com/shopmind-poc/server/internal/agent/graph/conversations"
	"github.com/shopmind-poc/server/internal/agent/graph/nodes"
	"github.com/shopmind-poc/server/internal/agent/intent"
	"github.com/shopmind-poc/server/internal/agent/memory"
	"github.com/shopmind-poc/server/internal/agent/model"
	errx "github.com/shopmind-poc/server/internal/core/errorx"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// Runner executes the compiled graph for one public request.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.AgentState, error)
}

// Config is the capability bundle for composing the full pipeline. All
// collaborators are explicit parameters; nothing is read from process-wide
// state, so tests can build isolated graphs with mock collaborators.
type Config struct {
	Writer   model.LLMProvider
	Utility  model.LLMProvider
	Embedder model.EmbeddingProvider
	Store    model.MemoryStore
	Products model.ProductSearcher

	Prompt       model.WriterPromptConfig
	Memory       model.MemoryConfig
	Shopping     model.ShoppingConfig
	Intent       model.IntentConfig
	Conversation model.ConversationConfig

	Hooks []Hook
}

func (c *Config) validate() error {
	switch {
	case c.Writer == nil:
		return fmt.Errorf("writer LLM provider is nil")
	case c.Utility == nil:
		return fmt.Errorf("utility LLM provider is nil")
	case c.Embedder == nil:
		return fmt.Errorf("embedding provider is nil")
	case c.Store == nil:
		return fmt.Errorf("memory store is nil")
	case c.Products == nil:
		return fmt.Errorf("product searcher is nil")
	}
	return nil
}

// Routing condition labels. Conditions return labels, never node names;
// the path maps bind labels to targets so topology stays declarative.
const (
	LabelShopping      = "shopping"
	LabelChat          = "chat"
	LabelQuestion      = "question"
	LabelComplete      = "complete"
	LabelProductSearch = "product_search"
	LabelGeneral       = "general"
)

// ShoppingModeCondition routes the intent fan-out.
func ShoppingModeCondition(_ context.Context, state *model.AgentState) (string, error) {
	if state.Mode == model.ModeShopping {
		return LabelShopping, nil
	}
	return LabelChat, nil
}

// ShoppingStatusCondition routes the interview outcome.
func ShoppingStatusCondition(_ context.Context, state *model.AgentState) (string, error) {
	if state.ShoppingStatus == model.ShoppingQuestion {
		return LabelQuestion, nil
	}
	return LabelComplete, nil
}

// ProductIntentCondition routes the writer fan-out.
func ProductIntentCondition(_ context.Context, state *model.AgentState) (string, error) {
	if state.Intent == model.IntentProductSearch {
		return LabelProductSearch, nil
	}
	return LabelGeneral, nil
}

// BuildDefaultGraph wires the fixed topology:
//
//	memory -> vision -> intent
//	intent   --[mode==shopping]-->  shopping, else writer
//	shopping --[status==question]-> END, --[complete]-> writer
//	writer   --[intent==product_search]-> product, else END
//	product  -> END
func BuildDefaultGraph(ctx context.Context, cfg Config) (Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	classifier, err := intent.NewClassifier(cfg.Intent, cfg.Embedder)
	if err != nil {
		return nil, err
	}

	contextBuilder := memory.NewContextBuilder(cfg.Store, cfg.Memory)
	summarizer := memory.NewSummarizer(cfg.Store, cfg.Utility, cfg.Memory)
	mm := conversations.NewMessagesManager(cfg.Store, cfg.Embedder, summarizer)

	hooks := cfg.Hooks
	if hooks == nil {
		hooks = []Hook{LoggingHook{}}
	}

	b := NewBuilder().
		AddAgent(nodes.NewMemoryAgent(contextBuilder, cfg.Embedder)).
		AddAgent(nodes.NewVisionAgent(cfg.Utility)).
		AddAgent(nodes.NewIntentAgent(classifier)).
		AddAgent(nodes.NewShoppingAgent(cfg.Utility, cfg.Shopping)).
		AddAgent(nodes.NewWriterAgent(cfg.Writer, cfg.Prompt, cfg.Conversation)).
		AddAgent(nodes.NewProductAgent(cfg.Products)).
		SetEntry(nodes.NodeMemory).
		AddEdge(nodes.NodeMemory, nodes.NodeVision).
		AddEdge(nodes.NodeVision, nodes.NodeIntent).
		AddBranch(nodes.NodeIntent, ShoppingModeCondition, map[string]string{
			LabelShopping: nodes.NodeShopping,
			LabelChat:     nodes.NodeWriter,
		}).
		AddBranch(nodes.NodeShopping, ShoppingStatusCondition, map[string]string{
			LabelQuestion: End,
			LabelComplete: nodes.NodeWriter,
		}).
		AddBranch(nodes.NodeWriter, ProductIntentCondition, map[string]string{
			LabelProductSearch: nodes.NodeProduct,
			LabelGeneral:       End,
		}).
		AddEdge(nodes.NodeProduct, End).
		WithHooks(hooks...)

	g, err := b.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile default graph: %w", err)
	}

	logx.Debug().Msg("default graph compiled")
	return &graphRunner{graph: g, mm: mm}, nil
}

type graphRunner struct {
	graph *Graph
	mm    *conversations.MessagesManager
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (*model.AgentState, error) {
	history, err := r.mm.ProcessUserMessage(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errx.ErrStoreUnavailable, err)
	}

	state := model.NewAgentState(in, history)
	if _, err := r.graph.Run(ctx, state); err != nil {
		return state, err
	}

	r.mm.SaveResponse(ctx, state)
	return state, nil
}

// NewRunner wraps an already-compiled graph with the persistence layer.
// Used by the experiment loader, which builds its own topology.
func NewRunner(g *Graph, mm *conversations.MessagesManager) Runner {
	return &graphRunner{graph: g, mm: mm}
}
