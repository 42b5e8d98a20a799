package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cuemby/branchd/pkg/log"
	"github.com/cuemby/branchd/pkg/store"
	"github.com/cuemby/branchd/pkg/types"
)

// MetricInput is the caller-supplied payload for IngestMetric.
type MetricInput struct {
	RepoURL       string
	BranchName    string
	Decision      string
	Price         *float64
	TradeExecuted bool
	TradeTxHash   string
	TradeAmount   *float64
}

// IngestMetric records a worker-reported observation. If no Agent row
// exists for the branch but the branch is already registered on
// chain, a row is created so metric ingestion is never blocked on the
// Agent record catching up with a push that happened before this
// controller process started.
func (c *Controller) IngestMetric(ctx context.Context, in MetricInput) error {
	if in.RepoURL == "" || in.BranchName == "" || in.Decision == "" {
		return &ValidationError{Field: "repo_url/branch_name/decision", Reason: "must be non-empty"}
	}

	branchHash := BranchHashFor(in.RepoURL, in.BranchName)
	agent, err := c.Store.GetAgentByBranchHash(branchHash)
	if errors.Is(err, store.ErrNotFound) {
		agent, err = c.selfHealAgent(ctx, in.RepoURL, in.BranchName, branchHash)
	}
	if err != nil {
		return err
	}

	return c.Store.InsertMetric(&types.Metric{
		AgentID:       agent.ID,
		BranchHash:    branchHash,
		Decision:      in.Decision,
		Price:         in.Price,
		TradeExecuted: in.TradeExecuted,
		TradeTxHash:   in.TradeTxHash,
		TradeAmount:   in.TradeAmount,
	})
}

func (c *Controller) selfHealAgent(ctx context.Context, repoURL, branchName, branchHash string) (*types.Agent, error) {
	addr, err := c.Chain.Lookup(ctx, branchHash)
	if err != nil {
		return nil, err
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("%s: %w", branchHash, ErrNotFound)
	}

	agent := &types.Agent{
		RepoURL:         repoURL,
		BranchName:      branchName,
		BranchHash:      branchHash,
		ContractAddress: addr.Hex(),
		Status:          types.AgentStatusRunning,
	}
	id, err := c.Store.UpsertAgent(agent)
	if err != nil {
		return nil, err
	}
	agent.ID = id

	log.WithBranchHash(branchHash).Warn().Str("agent_id", id).Msg("self-healed missing agent row from on-chain registration")
	return agent, nil
}

// RecentMetrics returns the most recent metrics for branchHash, newest
// first, bounded by limit.
func (c *Controller) RecentMetrics(branchHash string, limit int) ([]*types.Metric, error) {
	return c.Store.RecentMetrics(branchHash, limit)
}

// Stats aggregates an agent's full metric history.
func (c *Controller) Stats(branchHash string) (types.Stats, error) {
	return c.Store.AggregateMetrics(branchHash)
}

// Trades returns only the metrics where a trade was executed.
func (c *Controller) Trades(branchHash string) ([]*types.Metric, error) {
	all, err := c.Store.RecentMetrics(branchHash, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Metric, 0, len(all))
	for _, m := range all {
		if m.TradeExecuted {
			out = append(out, m)
		}
	}
	return out, nil
}
