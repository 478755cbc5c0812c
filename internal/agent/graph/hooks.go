package graph

import (
	"context"
	"time"

	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

// Hook observes node execution. Hooks must not mutate state; they exist for
// logging and metrics.
type Hook interface {
	OnNodeStart(ctx context.Context, runID, node string, state *model.AgentState)
	OnNodeEnd(ctx context.Context, runID, node string, state *model.AgentState, elapsed time.Duration, failed bool)
	OnNodeError(ctx context.Context, runID, node string, err error)
}

// LoggingHook traces node timing and the running cost total.
type LoggingHook struct{}

func (LoggingHook) OnNodeStart(_ context.Context, runID, node string, state *model.AgentState) {
	logx.Debug().
		Str("run_id", runID).
		Str("node", node).
		Str("session_id", state.SessionID).
		Msg("node start")
}

func (LoggingHook) OnNodeEnd(_ context.Context, runID, node string, state *model.AgentState, elapsed time.Duration, failed bool) {
	ev := logx.Debug()
	if failed {
		// Keep degraded executions visible at a higher level so a fallback
		// response is never silently indistinguishable from a generation.
		ev = logx.Warn()
	}
	ev.
		Str("run_id", runID).
		Str("node", node).
		Dur("elapsed", elapsed).
		Bool("fallback_applied", failed).
		Float64("total_cost_usd", state.TotalCostUSD).
		Msg("node end")
}

func (LoggingHook) OnNodeError(_ context.Context, runID, node string, err error) {
	logx.Error().
		Err(err).
		Str("run_id", runID).
		Str("node", node).
		Msg("node error")
}
