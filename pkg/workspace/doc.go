/*
Package workspace materializes a branch's git working tree on local
disk so the supervisor has something to execute.

Layout is one subdirectory per branch_hash under a configured root. The
working tree is never authoritative: Sync always hard-resets local
modifications before fetching, so the only source of truth is the
remote branch. EnsureClone and Sync both end with a pluggable
dependency-install hook, since the core package has no business knowing
whether a worker needs npm, pip, or nothing at all.

Operations on distinct branch_hash values are independent; callers that
touch the same branch_hash concurrently are responsible for
serializing themselves (see pkg/controller).
*/
package workspace
