/*
Package log provides structured logging for branchd using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support
filtering by severity level for production debugging.

# Architecture

branchd's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                     │          │
	│  │  - WithComponent("controller")              │          │
	│  │  - WithBranchHash("a1b2c3d4...")             │          │
	│  │  - WithAgentID("01H...")                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "branch_hash": "a1b2c3d4...",            │          │
	│  │    "time": "2026-07-31T10:30:00Z",         │          │
	│  │    "message": "push converged"              │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30AM INF push converged branch_hash=a1b2c3d4 │     │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all branchd packages

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages (push handled, reconciliation converged)
  - Warn: Warning messages (supervisor IPC failure, orphan secret migration failed)
  - Error: Error messages (workspace sync failed, chain register reverted)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: tag all logs from a package (controller, chain, supervisor, ...)
  - WithBranchHash: tag all logs for one tracked (repo, branch) pair
  - WithAgentID: tag all logs for one Agent row

# Log Levels

	log.Debug("cache hit")
	log.Info("push converged")
	log.Warn("supervisor describe failed, treating as missing")
	log.Error("workspace sync failed")
	log.Fatal("master key rejected by crypto box")

# Usage

Initialize once at process start:

	log.Init(log.Config{
	    Level:      log.InfoLevel,
	    JSONOutput: true,
	})

Derive a context logger for a push or reconciliation pass and log through it
rather than the package-level helpers, so every line carries the branch_hash:

	l := log.WithBranchHash(branchHash)
	l.Info().Str("repo_url", repoURL).Msg("processing push")
	l.Error().Err(err).Msg("workspace sync failed")

# Secrets

No helper in this package ever receives a decrypted secret value. Callers in
pkg/controller log secret key names only (see pkg/crypto's no-plaintext-logging
contract) — never pass ciphertext or plaintext through these loggers.
*/
package log
