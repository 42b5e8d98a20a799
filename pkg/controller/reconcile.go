package controller

import (
	"context"
	"time"

	"github.com/cuemby/branchd/pkg/chain"
	"github.com/cuemby/branchd/pkg/supervisor"
	"github.com/cuemby/branchd/pkg/types"
)

// BootstrapEntry names a (repository, branch) pair the controller must
// reconcile at startup even if the database and workspace disk are
// both empty.
type BootstrapEntry struct {
	RepoURL    string
	BranchName string
}

// livenessWindow is how recently a worker must have reported a metric
// to count as a corroborating liveness signal.
const livenessWindow = 5 * time.Minute

// ReconcileStartup converges every entry in the bootstrap list. It is
// the recovery path after total loss of the database and/or workspace
// disk: each entry runs the same convergence as a live push, so a
// fresh controller with nothing on disk ends up in the same state as
// one that has been running continuously.
//
// Registry enumeration (discovering branches from on-chain state
// instead of a supplied list) is intentionally not implemented; see
// the design notes for why.
func (c *Controller) ReconcileStartup(ctx context.Context, entries []BootstrapEntry) {
	for _, e := range entries {
		l := logger.With().Str("repo_url", e.RepoURL).Str("branch_name", e.BranchName).Logger()
		if err := c.ProcessPush(ctx, e.RepoURL, e.BranchName); err != nil {
			l.Error().Err(err).Msg("startup reconciliation failed for entry")
			continue
		}
		l.Info().Msg("startup reconciliation converged entry")
	}
}

// ReconcileLiveness re-derives each agent's status from the
// supervisor's process table and the agent's recent metric history.
// ListAgents starts it in a separate goroutine on every call, so no API
// request waits for it; it must never be called synchronously from an
// API handler.
func (c *Controller) ReconcileLiveness(ctx context.Context) {
	agents, err := c.Store.ListAgents()
	if err != nil {
		logger.Error().Err(err).Msg("liveness reconciliation: list agents failed")
		return
	}

	for _, a := range agents {
		c.reconcileOne(ctx, a)
	}
}

func (c *Controller) reconcileOne(ctx context.Context, a *types.Agent) {
	name := chain.SupervisorName(a.BranchHash)
	info, _, err := c.Supervisor.Describe(ctx, name)
	if err != nil {
		logger.Warn().Err(err).Str("agent_id", a.ID).Msg("liveness: describe failed")
		return
	}

	cutoff := time.Now().Add(-livenessWindow).Unix()
	recentMetric, err := c.Store.HasRecentMetricSince(a.BranchHash, cutoff)
	if err != nil {
		logger.Warn().Err(err).Str("agent_id", a.ID).Msg("liveness: metric check failed")
		recentMetric = false
	}

	next := deriveStatus(info.Status, recentMetric, a.Status)
	if next == a.Status {
		return
	}

	if err := c.Store.UpdateAgentStatus(a.ID, next, info.PID, a.LastError); err != nil {
		logger.Error().Err(err).Str("agent_id", a.ID).Msg("liveness: status update failed")
	}
}

// deriveStatus combines the supervisor's process status with whether a
// metric has arrived recently, per SPEC_FULL.md §4.6.4's authoritative
// table. A recent metric always corroborates a running worker even when
// the supervisor disagrees or has no record of it at all (StatusStopped/
// StatusErrored/StatusMissing with recentMetric=true all resolve to
// running: "worker running outside supervisor" / "unsupervised, note").
// Only the combination of a non-online supervisor status and no recent
// metric regresses the agent to error; for StatusMissing that happens
// only when the agent was running, otherwise its status is kept. A
// transient gap in metrics alone, with the supervisor still reporting
// online, never regresses a running agent.
func deriveStatus(procStatus supervisor.Status, recentMetric bool, current types.AgentStatus) types.AgentStatus {
	switch procStatus {
	case supervisor.StatusOnline:
		return types.AgentStatusRunning
	case supervisor.StatusStopped:
		if recentMetric {
			return types.AgentStatusRunning
		}
		return types.AgentStatusError
	case supervisor.StatusErrored:
		if recentMetric {
			return types.AgentStatusRunning
		}
		return types.AgentStatusError
	case supervisor.StatusMissing:
		if recentMetric {
			return types.AgentStatusRunning
		}
		if current == types.AgentStatusRunning {
			return types.AgentStatusError
		}
		return current
	default:
		return current
	}
}
