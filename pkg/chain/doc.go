/*
Package chain is the read/write client for the on-chain Registry
contract that anchors a branch's identity to an EVM address.

The Registry exposes two operations: lookup(branch_hash) -> address and
register(branch_hash) -> address. branch_hash is keccak256(repo_url +
"/" + branch_name), computed here with go-ethereum's crypto package so
the hash is identical to what the contract itself hashes on-chain.

# Initialization is lazy

Dialing the RPC endpoint, parsing the ABI, and deriving the transaction
signer all happen on first use, not at construction. A controller with
no chain configuration still starts its HTTP surface; only the
chain-dependent code paths fail, with *UnavailableError.

# Idempotent registration

register() reverts if the branch_hash is already registered. That revert
is not an error from this package's perspective -- Register resolves it
by re-reading Lookup and returning the existing address. Any other
revert is fatal and returned as *RegisterError. Transport failures (DNS,
timeout, 5xx) are returned as *TransientError and are safe for the caller to retry on
the next webhook delivery.
*/
package chain
