// Package types defines the domain model shared across the controller's components.
package types

import "time"

// AgentStatus represents the lifecycle state of a deployed branch worker.
type AgentStatus string

const (
	AgentStatusDeploying AgentStatus = "deploying"
	AgentStatusRunning   AgentStatus = "running"
	AgentStatusError     AgentStatus = "error"
	AgentStatusStopped   AgentStatus = "stopped"
)

// Agent is the durable record of a tracked (repository, branch) pair.
//
// BranchHash is the stable cross-restart identity; ID is a local surrogate
// key that may change if the row is recreated after storage loss. Any
// lookup that must survive storage loss uses BranchHash, never ID.
type Agent struct {
	ID              string
	RepoURL         string
	BranchName      string
	BranchHash      string // hex-encoded keccak256(repo_url + "/" + branch_name)
	ContractAddress string // hex-encoded EVM address, empty until registered
	Status          AgentStatus
	WorkerPID       int // advisory only, 0 if unknown
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Secret is an encrypted key/value pair scoped to an Agent.
type Secret struct {
	ID         string
	AgentID    string
	BranchHash string
	Key        string
	Ciphertext []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Metric is an append-only observation reported by a worker process.
type Metric struct {
	ID            string
	AgentID       string
	BranchHash    string
	Timestamp     time.Time
	Decision      string
	Price         *float64
	TradeExecuted bool
	TradeTxHash   string
	TradeAmount   *float64
}

// Stats is an aggregation over an agent's metric history.
type Stats struct {
	TotalDecisions int
	TotalTrades    int
	LastDecisionAt time.Time
	LastTradeAt    time.Time
}

// OAuthGrant is a persisted authorization to a git hosting provider,
// stored here so the (out of scope) provisioning flow needs no schema
// change when it lands.
type OAuthGrant struct {
	UserID            string
	RepoURL            string
	AccessTokenCipher []byte
	WebhookConfigured bool
	CreatedAt         time.Time
}
