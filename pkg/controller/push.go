package controller

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cuemby/branchd/pkg/chain"
	"github.com/cuemby/branchd/pkg/log"
	"github.com/cuemby/branchd/pkg/store"
	"github.com/cuemby/branchd/pkg/supervisor"
	"github.com/cuemby/branchd/pkg/types"
)

// PushTimeout bounds a single push's processing so an HTTP caller that
// waits on it, or a fire-and-forget goroutine the caller abandons, can
// never wedge the controller indefinitely on one bad branch.
const PushTimeout = 25 * time.Second

// ProcessPush converges the (repo_url, branch_name) pair to a running,
// on-chain-anchored, supervised worker. It is idempotent: calling it
// repeatedly for the same branch with no intervening changes leaves
// the system in the same state it started in.
//
// At most one ProcessPush call (or start/reload) proceeds past the
// lock acquisition per branch_hash at a time; concurrent pushes to
// distinct branches run fully in parallel.
func (c *Controller) ProcessPush(ctx context.Context, repoURL, branchName string) error {
	if repoURL == "" || branchName == "" {
		return &ValidationError{Field: "repo_url/branch_name", Reason: "must be non-empty"}
	}

	ctx, cancel := context.WithTimeout(ctx, PushTimeout)
	defer cancel()

	branchHash := chain.BranchHash(repoURL, branchName)
	unlock := c.locks.Lock(branchHash)
	defer unlock()

	l := log.WithBranchHash(branchHash)
	l.Info().Str("repo_url", repoURL).Str("branch_name", branchName).Msg("processing push")

	// Resolve the contract address before touching the Store: a brand-new
	// branch must not get a DB row at all if the chain is unreachable, per
	// SPEC_FULL.md §4.6.1's transition order and the ChainTransient
	// contract in §7 (the handler returns without changing state).
	addr, err := c.resolveContractAddress(ctx, branchHash)
	if err != nil {
		var transientErr *chain.TransientError
		if errors.As(err, &transientErr) {
			l.Warn().Err(err).Msg("chain transient error; leaving agent state untouched")
			return err
		}

		// Any other chain failure is fatal and must be durably recorded,
		// even for a branch with no prior row: create it so the error
		// status has somewhere to live.
		agent, _, aerr := c.upsertAgentRow(repoURL, branchName, branchHash)
		if aerr != nil {
			return aerr
		}
		c.fail(agent.ID, err)
		return err
	}

	agent, isNew, err := c.upsertAgentRow(repoURL, branchName, branchHash)
	if err != nil {
		return err
	}
	agent.ContractAddress = addr.Hex()
	if _, err := c.Store.UpsertAgent(agent); err != nil {
		return err
	}

	if isNew {
		if err := c.migrateOrphanSecrets(branchHash, agent.ID); err != nil {
			l.Warn().Err(err).Msg("secret migration failed")
		}
	}

	if err := c.Workspace.EnsureClone(ctx, branchHash, repoURL, branchName); err != nil {
		c.fail(agent.ID, err)
		return err
	}
	if err := c.Workspace.Sync(ctx, branchHash, branchName); err != nil {
		c.fail(agent.ID, err)
		return err
	}

	has, err := c.Workspace.HasEntrypoint(branchHash)
	if err != nil {
		c.fail(agent.ID, err)
		return err
	}
	if !has {
		err := &ValidationError{Field: "entrypoint", Reason: "no agent.* file found at repository root"}
		c.fail(agent.ID, err)
		return err
	}
	entrypoint, err := c.Workspace.EntrypointPath(branchHash)
	if err != nil {
		c.fail(agent.ID, err)
		return err
	}

	secrets, err := c.resolveSecrets(branchHash)
	if err != nil {
		c.fail(agent.ID, err)
		return err
	}
	env := c.buildEnv(agent, secrets)

	name := chain.SupervisorName(branchHash)
	// Delete-then-start rather than Reload: a push may follow a crash
	// where the supervisor's table and the on-disk checkout disagree,
	// so an unconditional clean start is the only combination that is
	// always correct.
	_ = c.Supervisor.Delete(ctx, name)
	spec := supervisor.ProcessSpec{
		Name:       name,
		Entrypoint: entrypoint,
		WorkDir:    c.Workspace.Dir(branchHash),
		Env:        env,
	}
	if err := c.Supervisor.Start(ctx, spec); err != nil {
		werr := &SupervisorError{Op: "start", Name: name, Err: err}
		c.fail(agent.ID, werr)
		return werr
	}

	info, _, _ := c.Supervisor.Describe(ctx, name)
	if err := c.Store.UpdateAgentStatus(agent.ID, types.AgentStatusRunning, info.PID, ""); err != nil {
		return err
	}

	l.Info().Str("contract_address", agent.ContractAddress).Int("pid", info.PID).Msg("push converged")
	return nil
}

// upsertAgentRow loads the existing Agent for branchHash, or creates a
// new one in the deploying state. It reports whether the row was newly
// created, which governs whether an orphan-secret migration runs.
func (c *Controller) upsertAgentRow(repoURL, branchName, branchHash string) (*types.Agent, bool, error) {
	existing, err := c.Store.GetAgentByBranchHash(branchHash)
	if err == nil {
		existing.RepoURL = repoURL
		existing.BranchName = branchName
		if _, err := c.Store.UpsertAgent(existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	agent := &types.Agent{
		RepoURL:    repoURL,
		BranchName: branchName,
		BranchHash: branchHash,
		Status:     types.AgentStatusDeploying,
	}
	id, err := c.Store.UpsertAgent(agent)
	if err != nil {
		return nil, false, err
	}
	agent.ID = id
	return agent, true, nil
}

// resolveContractAddress looks up branchHash on-chain and registers it
// if it is not yet present. Lookup returning the zero address is not
// an error: it means "not yet registered."
func (c *Controller) resolveContractAddress(ctx context.Context, branchHash string) (common.Address, error) {
	addr, err := c.Chain.Lookup(ctx, branchHash)
	if err != nil {
		return common.Address{}, err
	}
	if addr != (common.Address{}) {
		return addr, nil
	}
	return c.Chain.Register(ctx, branchHash)
}

func (c *Controller) fail(agentID string, err error) {
	if uerr := c.Store.UpdateAgentStatus(agentID, types.AgentStatusError, 0, err.Error()); uerr != nil {
		logger.Error().Err(uerr).Str("agent_id", agentID).Msg("failed to record agent error status")
	}
}
