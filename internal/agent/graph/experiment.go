package graph

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/shopmind-poc/server/internal/agent/graph/conversations"
	"github.com/shopmind-poc/server/internal/agent/intent"
	"github.com/shopmind-poc/server/internal/agent/memory"
)

// ExperimentConfig is the declarative topology format. It lets alternate
// graph shapes run without code changes; every name in it must resolve
// against the registry or loading fails.
type ExperimentConfig struct {
	Name     string             `mapstructure:"name"`
	Entry    string             `mapstructure:"entry"`
	Nodes    []ExperimentNode   `mapstructure:"nodes"`
	Edges    []ExperimentEdge   `mapstructure:"edges"`
	Branches []ExperimentBranch `mapstructure:"branches"`
}

type ExperimentNode struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

type ExperimentEdge struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

type ExperimentBranch struct {
	From      string            `mapstructure:"from"`
	Condition string            `mapstructure:"condition"`
	Paths     map[string]string `mapstructure:"paths"`
}

// renamedAgent lets a topology file run the same agent type under a
// different node name.
type renamedAgent struct {
	name string
	Agent
}

func (r renamedAgent) Name() string { return r.name }

// LoadExperimentConfig reads a topology file (yaml, json, or toml by
// extension) into an ExperimentConfig.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read experiment config %s: %w", path, err)
	}

	var ec ExperimentConfig
	if err := v.Unmarshal(&ec); err != nil {
		return nil, fmt.Errorf("decode experiment config %s: %w", path, err)
	}
	return &ec, nil
}

// LoadExperiment builds a runnable graph from a topology file. All
// validation happens here: unknown node types, unknown conditions, and
// structural errors surface before the runner is returned.
func LoadExperiment(path string, reg *Registry, cfg Config) (Runner, error) {
	ec, err := LoadExperimentConfig(path)
	if err != nil {
		return nil, err
	}
	return BuildExperiment(ec, reg, cfg)
}

// BuildExperiment assembles a Runner from an already-decoded topology.
func BuildExperiment(ec *ExperimentConfig, reg *Registry, cfg Config) (Runner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(ec.Nodes) == 0 {
		return nil, fmt.Errorf("experiment %q declares no nodes", ec.Name)
	}

	classifier, err := intent.NewClassifier(cfg.Intent, cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("build intent classifier: %w", err)
	}
	deps := &Deps{
		Config:         cfg,
		Classifier:     classifier,
		ContextBuilder: memory.NewContextBuilder(cfg.Store, cfg.Memory),
	}

	b := NewBuilder()
	for _, n := range ec.Nodes {
		factory, err := reg.ResolveNode(n.Type)
		if err != nil {
			return nil, fmt.Errorf("experiment %q node %q: %w", ec.Name, n.Name, err)
		}
		agent, err := factory(deps)
		if err != nil {
			return nil, fmt.Errorf("experiment %q node %q: construct %s: %w", ec.Name, n.Name, n.Type, err)
		}
		if n.Name != "" && n.Name != agent.Name() {
			agent = renamedAgent{name: n.Name, Agent: agent}
		}
		b.AddAgent(agent)
	}

	b.SetEntry(ec.Entry)
	for _, e := range ec.Edges {
		b.AddEdge(e.From, e.To)
	}
	for _, br := range ec.Branches {
		cond, err := reg.ResolveCondition(br.Condition)
		if err != nil {
			return nil, fmt.Errorf("experiment %q branch from %q: %w", ec.Name, br.From, err)
		}
		b.AddBranch(br.From, cond, br.Paths)
	}

	hooks := cfg.Hooks
	if hooks == nil {
		hooks = []Hook{LoggingHook{}}
	}
	b.WithHooks(hooks...)

	g, err := b.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile experiment %q: %w", ec.Name, err)
	}

	summarizer := memory.NewSummarizer(cfg.Store, cfg.Utility, cfg.Memory)
	mm := conversations.NewMessagesManager(cfg.Store, cfg.Embedder, summarizer)
	return NewRunner(g, mm), nil
}
