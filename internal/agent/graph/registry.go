package graph

import (
	"fmt"
	"sort"

	"github.com/shopmind-poc/server/internal/agent/graph/nodes"
	"github.com/shopmind-poc/server/internal/agent/intent"
	"github.com/shopmind-poc/server/internal/agent/memory"
)

// Deps carries the shared components node factories construct agents from.
type Deps struct {
	Config         Config
	Classifier     *intent.Classifier
	ContextBuilder *memory.ContextBuilder
}

// NodeFactory builds one agent instance from the dependency bundle.
type NodeFactory func(d *Deps) (Agent, error)

// Registry resolves node type names and condition names for the
// config-driven graph variant. Unresolved names are fatal at graph-build
// time, before any request is served.
type Registry struct {
	nodeFactories map[string]NodeFactory
	conditions    map[string]Condition
}

func NewRegistry() *Registry {
	return &Registry{
		nodeFactories: make(map[string]NodeFactory),
		conditions:    make(map[string]Condition),
	}
}

func (r *Registry) RegisterNode(typeName string, f NodeFactory) {
	r.nodeFactories[typeName] = f
}

func (r *Registry) RegisterCondition(name string, c Condition) {
	r.conditions[name] = c
}

func (r *Registry) ResolveNode(typeName string) (NodeFactory, error) {
	f, ok := r.nodeFactories[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown node type %q (registered: %v)", typeName, r.nodeTypes())
	}
	return f, nil
}

func (r *Registry) ResolveCondition(name string) (Condition, error) {
	c, ok := r.conditions[name]
	if !ok {
		return nil, fmt.Errorf("unknown condition %q (registered: %v)", name, r.conditionNames())
	}
	return c, nil
}

func (r *Registry) nodeTypes() []string {
	names := make([]string, 0, len(r.nodeFactories))
	for n := range r.nodeFactories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) conditionNames() []string {
	names := make([]string, 0, len(r.conditions))
	for n := range r.conditions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Condition names for the default registry.
const (
	CondShoppingMode   = "shopping_mode"
	CondShoppingStatus = "shopping_status"
	CondProductIntent  = "product_intent"
)

// DefaultRegistry registers the built-in node types and conditions.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterNode(nodes.NodeMemory, func(d *Deps) (Agent, error) {
		return nodes.NewMemoryAgent(d.ContextBuilder, d.Config.Embedder), nil
	})
	r.RegisterNode(nodes.NodeVision, func(d *Deps) (Agent, error) {
		return nodes.NewVisionAgent(d.Config.Utility), nil
	})
	r.RegisterNode(nodes.NodeIntent, func(d *Deps) (Agent, error) {
		return nodes.NewIntentAgent(d.Classifier), nil
	})
	r.RegisterNode(nodes.NodeShopping, func(d *Deps) (Agent, error) {
		return nodes.NewShoppingAgent(d.Config.Utility, d.Config.Shopping), nil
	})
	r.RegisterNode(nodes.NodeWriter, func(d *Deps) (Agent, error) {
		return nodes.NewWriterAgent(d.Config.Writer, d.Config.Prompt, d.Config.Conversation), nil
	})
	r.RegisterNode(nodes.NodeProduct, func(d *Deps) (Agent, error) {
		return nodes.NewProductAgent(d.Config.Products), nil
	})

	r.RegisterCondition(CondShoppingMode, ShoppingModeCondition)
	r.RegisterCondition(CondShoppingStatus, ShoppingStatusCondition)
	r.RegisterCondition(CondProductIntent, ProductIntentCondition)

	return r
}
