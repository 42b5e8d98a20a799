/*
Package controller orchestrates the Store, Crypto, Chain, Workspace,
and Supervisor components into the system's one externally meaningful
operation: taking a (repo_url, branch_name) push and converging it to
a running, on-chain-anchored, supervised worker process.

It owns three pieces of cross-cutting behavior none of the leaf
packages can own by themselves: the per-branch critical section that
serializes concurrent pushes to the same branch, the secret-migration
join that survives a recreated Agent row, and the reconciliation loops
(startup recovery and on-demand liveness) that keep database, chain,
disk, and supervisor state converged under partial failure.
*/
package controller
