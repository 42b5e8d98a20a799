// Package store provides durable local persistence for agents, secrets,
// metrics, and OAuth grants on an embedded BoltDB (bbolt) database.
package store

import (
	"errors"

	"github.com/cuemby/branchd/pkg/types"
)

// ErrNotFound is returned when a lookup by key finds no row.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface the controller depends on. It is
// implemented by BoltStore; tests may substitute an in-memory fake.
type Store interface {
	// UpsertAgent creates or updates the Agent row keyed on a.ID (a new
	// ID is assigned when it is empty), points the branch_hash index at
	// that row, and returns the agent ID.
	UpsertAgent(a *types.Agent) (string, error)
	GetAgent(id string) (*types.Agent, error)
	GetAgentByBranchHash(branchHash string) (*types.Agent, error)
	ListAgents() ([]*types.Agent, error)
	UpdateAgentStatus(id string, status types.AgentStatus, pid int, lastErr string) error
	DeleteAgent(id string) error

	// PutSecret is an idempotent upsert keyed on (agentID, key).
	PutSecret(agentID, branchHash, key string, ciphertext []byte) error
	// ListSecretsByBranchHash joins across every agent row that shares
	// branchHash, not just the current agent ID.
	ListSecretsByBranchHash(branchHash string) ([]*types.Secret, error)
	// MigrateSecrets idempotently re-keys every secret found under
	// fromAgentID onto toAgentID.
	MigrateSecrets(fromAgentID, toAgentID string) error

	InsertMetric(m *types.Metric) error
	RecentMetrics(branchHash string, limit int) ([]*types.Metric, error)
	AggregateMetrics(branchHash string) (types.Stats, error)
	HasRecentMetricSince(branchHash string, cutoffUnix int64) (bool, error)

	PutOAuthGrant(g *types.OAuthGrant) error
	GetOAuthGrant(userID, repoURL string) (*types.OAuthGrant, error)

	Close() error
}
