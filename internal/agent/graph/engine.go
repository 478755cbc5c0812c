package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// End is the terminal marker: an edge or branch path targeting End stops
// the run.
const End = "END"

// Agent is a unit of work in the graph. Execute returns a partial update
// merged into the running state via the per-field policy table; Fallback
// supplies the node's minimal contribution when Execute fails, implementing
// the contain-and-degrade posture.
type Agent interface {
	Name() string
	Execute(ctx context.Context, state *model.AgentState) (model.Update, error)
	Fallback(err error) model.Update
}

// Condition is a routing function evaluated after a node completes. The
// returned label is looked up in the branch's path map.
type Condition func(ctx context.Context, state *model.AgentState) (string, error)

// Branch pairs a condition with its label -> target path map.
type Branch struct {
	Condition Condition
	Paths     map[string]string
}

// Graph is a compiled, immutable node graph. Build it through Builder;
// Compile validates the topology so routing errors surface before any
// request is served.
type Graph struct {
	entry    string
	agents   map[string]Agent
	edges    map[string]string
	branches map[string]*Branch
	hooks    []Hook
	maxSteps int
}

// Builder accumulates nodes, edges and branches for a Graph.
type Builder struct {
	entry    string
	agents   map[string]Agent
	edges    map[string]string
	branches map[string]*Branch
	hooks    []Hook
	errs     []error
}

func NewBuilder() *Builder {
	return &Builder{
		agents:   make(map[string]Agent),
		edges:    make(map[string]string),
		branches: make(map[string]*Branch),
	}
}

func (b *Builder) AddAgent(a Agent) *Builder {
	if a == nil {
		b.errs = append(b.errs, fmt.Errorf("nil agent"))
		return b
	}
	name := a.Name()
	if name == "" || name == End {
		b.errs = append(b.errs, fmt.Errorf("invalid agent name %q", name))
		return b
	}
	if _, dup := b.agents[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("duplicate agent %q", name))
		return b
	}
	b.agents[name] = a
	return b
}

func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

func (b *Builder) AddEdge(from, to string) *Builder {
	if _, dup := b.edges[from]; dup {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an outgoing edge", from))
		return b
	}
	b.edges[from] = to
	return b
}

func (b *Builder) AddBranch(from string, cond Condition, paths map[string]string) *Builder {
	if cond == nil {
		b.errs = append(b.errs, fmt.Errorf("node %q: nil branch condition", from))
		return b
	}
	if len(paths) == 0 {
		b.errs = append(b.errs, fmt.Errorf("node %q: branch has no paths", from))
		return b
	}
	if _, dup := b.branches[from]; dup {
		b.errs = append(b.errs, fmt.Errorf("node %q already has a branch", from))
		return b
	}
	b.branches[from] = &Branch{Condition: cond, Paths: paths}
	return b
}

func (b *Builder) WithHooks(hooks ...Hook) *Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// Compile validates the topology: the entry exists, every routing target is
// a known node or End, and every node has exactly one way out. All
// validation happens here, never at request time.
func (b *Builder) Compile() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(b.agents) == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}
	if b.entry == "" {
		return nil, fmt.Errorf("graph entry not set")
	}
	if _, ok := b.agents[b.entry]; !ok {
		return nil, fmt.Errorf("entry node %q is not a registered node", b.entry)
	}

	for from, to := range b.edges {
		if _, ok := b.agents[from]; !ok {
			return nil, fmt.Errorf("edge from unknown node %q", from)
		}
		if to != End {
			if _, ok := b.agents[to]; !ok {
				return nil, fmt.Errorf("edge %q -> %q targets unknown node", from, to)
			}
		}
		if _, both := b.branches[from]; both {
			return nil, fmt.Errorf("node %q has both an edge and a branch", from)
		}
	}

	for from, br := range b.branches {
		if _, ok := b.agents[from]; !ok {
			return nil, fmt.Errorf("branch from unknown node %q", from)
		}
		for label, target := range br.Paths {
			if target == End {
				continue
			}
			if _, ok := b.agents[target]; !ok {
				return nil, fmt.Errorf("branch %q label %q targets unknown node %q", from, label, target)
			}
		}
	}

	for name := range b.agents {
		_, hasEdge := b.edges[name]
		_, hasBranch := b.branches[name]
		if !hasEdge && !hasBranch {
			return nil, fmt.Errorf("node %q has no outgoing edge or branch", name)
		}
	}

	// The topology is expected to be acyclic; the step bound is a guard
	// against a misconfigured experiment graph, not a scheduling feature.
	maxSteps := 2*len(b.agents) + 2

	return &Graph{
		entry:    b.entry,
		agents:   b.agents,
		edges:    b.edges,
		branches: b.branches,
		hooks:    b.hooks,
		maxSteps: maxSteps,
	}, nil
}

// fallbackResponse terminates a run that would otherwise end with no
// user-facing output. It is only reachable when the sole response-producing
// node was skipped by a misrouted experiment topology.
const fallbackResponse = "Sorry, something went wrong while preparing your answer. Please try again."

// Run executes the graph on the given state and returns the terminal state.
// A node error never aborts the run: the node's Fallback update is merged
// instead and execution continues. The returned error is reserved for
// engine-level faults (step bound exceeded, condition returned an unmapped
// label), which indicate a configuration defect rather than a bad request.
func (g *Graph) Run(ctx context.Context, state *model.AgentState) (*model.AgentState, error) {
	runID := uuid.NewString()
	logx.Debug().
		Str("run_id", runID).
		Str("session_id", state.SessionID).
		Str("mode", string(state.Mode)).
		Msg("graph run started")

	current := g.entry
	for steps := 0; current != End; steps++ {
		if steps >= g.maxSteps {
			return state, fmt.Errorf("graph run %s exceeded %d steps at node %q", runID, g.maxSteps, current)
		}

		agent := g.agents[current]
		for _, h := range g.hooks {
			h.OnNodeStart(ctx, runID, current, state)
		}

		started := time.Now()
		update, err := agent.Execute(ctx, state)
		elapsed := time.Since(started)

		if err != nil {
			logx.Error().
				Err(err).
				Str("run_id", runID).
				Str("node", current).
				Dur("elapsed", elapsed).
				Msg("node failed, applying fallback update")
			for _, h := range g.hooks {
				h.OnNodeError(ctx, runID, current, err)
			}
			update = agent.Fallback(err)
		}

		if update == nil {
			update = model.Update{}
		}
		if mergeErr := model.Apply(state, update); mergeErr != nil {
			logx.Error().
				Err(mergeErr).
				Str("run_id", runID).
				Str("node", current).
				Msg("partial update rejected field")
		}
		// The audit trail is appended by the engine so no node can drop it.
		_ = model.Apply(state, model.Update{model.FieldAgentsUsed: []string{current}})

		for _, h := range g.hooks {
			h.OnNodeEnd(ctx, runID, current, state, elapsed, err != nil)
		}

		next, err := g.route(ctx, current, state)
		if err != nil {
			return state, fmt.Errorf("graph run %s: %w", runID, err)
		}
		current = next
	}

	if !state.HasOutput() {
		logx.Error().
			Str("run_id", runID).
			Str("session_id", state.SessionID).
			Msg("graph terminated with no output, applying terminal fallback")
		state.Response = fallbackResponse
	}

	logx.Debug().
		Str("run_id", runID).
		Strs("agents_used", state.AgentsUsed).
		Float64("total_cost_usd", state.TotalCostUSD).
		Msg("graph run finished")
	return state, nil
}

func (g *Graph) route(ctx context.Context, current string, state *model.AgentState) (string, error) {
	if next, ok := g.edges[current]; ok {
		return next, nil
	}
	br := g.branches[current]
	label, err := br.Condition(ctx, state)
	if err != nil {
		return "", fmt.Errorf("branch condition at %q: %w", current, err)
	}
	target, ok := br.Paths[label]
	if !ok {
		return "", fmt.Errorf("branch at %q returned unmapped label %q", current, label)
	}
	logx.Debug().Str("node", current).Str("label", label).Str("next", target).Msg("branch taken")
	return target, nil
}
