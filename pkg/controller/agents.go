package controller

import (
	"context"
	"errors"

	"github.com/cuemby/branchd/pkg/chain"
	"github.com/cuemby/branchd/pkg/store"
	"github.com/cuemby/branchd/pkg/types"
)

// ListAgents returns every tracked agent, optionally filtered to one
// repository. Each call also starts a liveness reconciliation pass in
// its own goroutine; the statuses returned are those read before that
// pass updates them.
func (c *Controller) ListAgents(repoURL string) ([]*types.Agent, error) {
	go c.ReconcileLiveness(context.Background())

	all, err := c.Store.ListAgents()
	if err != nil {
		return nil, err
	}
	if repoURL == "" {
		return all, nil
	}
	filtered := make([]*types.Agent, 0, len(all))
	for _, a := range all {
		if a.RepoURL == repoURL {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// GetAgent loads one agent by ID.
func (c *Controller) GetAgent(id string) (*types.Agent, error) {
	a, err := c.Store.GetAgent(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

// RestartAgent forces a start/reload for agentID, re-running the same
// convergence ProcessPush performs (clone/sync on demand, env rebuild,
// delete-then-start) without requiring a new push.
func (c *Controller) RestartAgent(ctx context.Context, agentID string) error {
	a, err := c.GetAgent(agentID)
	if err != nil {
		return err
	}
	return c.ProcessPush(ctx, a.RepoURL, a.BranchName)
}

// RestartByBranchHash is RestartAgent keyed by branch_hash instead of
// agent ID, for callers that only know the hash.
func (c *Controller) RestartByBranchHash(ctx context.Context, branchHash string) error {
	a, err := c.Store.GetAgentByBranchHash(branchHash)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return c.ProcessPush(ctx, a.RepoURL, a.BranchName)
}

// RestartAll forces a restart of every tracked agent, best effort: one
// agent's failure does not stop the rest.
func (c *Controller) RestartAll(ctx context.Context) []error {
	agents, err := c.Store.ListAgents()
	if err != nil {
		return []error{err}
	}
	var errs []error
	for _, a := range agents {
		if err := c.ProcessPush(ctx, a.RepoURL, a.BranchName); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// CheckRecovery re-runs convergence for every agent already on record.
// Unlike ReconcileStartup, it needs no bootstrap list: once at least
// one Agent row exists, its (repo_url, branch_name) is itself the
// recovery source.
func (c *Controller) CheckRecovery(ctx context.Context) []error {
	return c.RestartAll(ctx)
}

// ManualTrigger synthesizes a push for testing without an inbound
// webhook call.
func (c *Controller) ManualTrigger(ctx context.Context, repoURL, branchName string) error {
	return c.ProcessPush(ctx, repoURL, branchName)
}

// BranchHashFor is a thin convenience wrapper so callers outside
// pkg/chain (the HTTP layer) never need to import it directly just to
// derive a branch_hash from a webhook payload.
func BranchHashFor(repoURL, branchName string) string {
	return chain.BranchHash(repoURL, branchName)
}
