/*
Package types defines the domain model shared across branchd's components.

This package contains the fundamental data structures that represent a
tracked (repository, branch) pair and everything derived from it: its
on-chain identity, its encrypted secrets, the metrics its worker reports,
and any persisted git-hosting-provider authorization. These types are used
by pkg/store for persistence, by pkg/controller for orchestration, and by
pkg/api for JSON responses.

# Architecture

The types package is the foundation of branchd's data model. It defines:

  - Agent identity and lifecycle (branch_hash, contract address, status)
  - Encrypted secret storage scoped to an Agent
  - Append-only worker metrics and their aggregation
  - Persisted git-hosting-provider OAuth grants

All types are designed to be:
  - Serializable (JSON, for pkg/api responses and pkg/store's bbolt values)
  - Keyed by BranchHash for anything that must survive storage loss (Agent.ID
    is a local surrogate key only, stable within a single DB lifetime)
  - Self-documenting (clear field names and comments)

# Core Types

The main types in this package are:

Agent Lifecycle:
  - Agent: the durable record of one tracked (repository, branch) pair
  - AgentStatus: deploying, running, error, or stopped

Secrets:
  - Secret: an encrypted key/value pair scoped to an Agent, keyed by
    (agent_id, key) but joined across agent rows by BranchHash so it
    survives an Agent row being recreated after storage loss

Metrics:
  - Metric: a single worker-reported observation (decision, price, trade)
  - Stats: an aggregation over an Agent's metric history

OAuth:
  - OAuthGrant: a persisted authorization to the git hosting provider,
    scoped by (user_id, repo_url)

# Usage

Creating an Agent:

	agent := &types.Agent{
	    RepoURL:    "https://github.com/acme/trading-bot",
	    BranchName: "main",
	    BranchHash: chain.BranchHash(repoURL, branchName),
	    Status:     types.AgentStatusDeploying,
	}

Every cross-restart lookup (secret migration, startup reconciliation,
liveness checks) goes through BranchHash, never Agent.ID: ID is a local
surrogate key that may change across redeploys if the row is recreated
after storage loss, while BranchHash is a pure function of
(repo_url, branch_name) and is therefore stable forever.

# Secrets

Secret.Ciphertext is opaque to this package: pkg/crypto is the only code
that ever turns it back into plaintext, and only in memory, never logged
or persisted decrypted.
*/
package types
