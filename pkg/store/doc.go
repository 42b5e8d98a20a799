/*
Package store provides BoltDB-backed persistence for the controller's
durable state: agents, secrets, metrics, and OAuth grants.

# Buckets

	agents                  agent ID -> Agent JSON
	agents_by_branch_hash   branch_hash -> current agent ID
	secrets                 "<agentID>\x00<key>" -> Secret JSON
	secrets_by_branch_hash  branch_hash -> JSON list of every agent ID
	                        that has ever held a secret under that hash
	metrics                 "<branchHash>\x00<unixnano>\x00<id>" -> Metric JSON
	oauth_grants            "<userID>\x00<repoURL>" -> OAuthGrant JSON

# Relational joins on a KV engine

The domain model requires one join the spec is explicit about: listing
every secret for a branch_hash regardless of which agent row currently
owns it, so that secrets survive an Agent row being recreated after
storage loss. BoltDB has no query planner, so that join is emulated with
the secrets_by_branch_hash secondary-index bucket instead of reaching
for an unrelated SQL engine.

Agent CRUD follows the upsert pattern: Create and Update share one
method, keyed on ID, with UpsertAgent additionally maintaining the
branch_hash index. Deletes are idempotent.
*/
package store
