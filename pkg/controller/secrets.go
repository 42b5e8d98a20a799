package controller

import (
	"errors"
	"fmt"

	"github.com/cuemby/branchd/pkg/log"
	"github.com/cuemby/branchd/pkg/store"
)

// PutSecret encrypts value and upserts it for the agent tracked under
// (repoURL, branchName). The Agent must already exist: a secret with
// no agent to attach to has no branch_hash to be found by later.
func (c *Controller) PutSecret(repoURL, branchName, key, value string) error {
	branchHash := BranchHashFor(repoURL, branchName)
	agent, err := c.Store.GetAgentByBranchHash(branchHash)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	ciphertext, err := c.Crypto.Encrypt([]byte(value))
	if err != nil {
		return err
	}
	return c.Store.PutSecret(agent.ID, branchHash, key, ciphertext)
}

// CheckSecrets reports which of requiredKeys are set for branchHash,
// without ever returning the plaintext or ciphertext values.
func (c *Controller) CheckSecrets(branchHash string, requiredKeys []string) (map[string]bool, error) {
	rows, err := c.Store.ListSecretsByBranchHash(branchHash)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(rows))
	for _, s := range rows {
		present[s.Key] = true
	}

	if requiredKeys == nil {
		return present, nil
	}
	out := make(map[string]bool, len(requiredKeys))
	for _, k := range requiredKeys {
		out[k] = present[k]
	}
	return out, nil
}

// migrateOrphanSecrets re-keys any secret stored under a different
// agent ID than agentID but sharing branchHash onto agentID. This
// covers the case where the Agent row was recreated (database loss)
// but the secrets bucket, keyed by branch_hash as well as agent_id,
// survived or was restored from a different snapshot: without this
// step a recreated agent would silently start with no secrets.
func (c *Controller) migrateOrphanSecrets(branchHash, agentID string) error {
	existing, err := c.Store.ListSecretsByBranchHash(branchHash)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, s := range existing {
		if s.AgentID == agentID || seen[s.AgentID] {
			continue
		}
		seen[s.AgentID] = true
		if err := c.Store.MigrateSecrets(s.AgentID, agentID); err != nil {
			return err
		}
	}
	return nil
}

// resolveSecrets decrypts every secret for branchHash into a plaintext
// env map. It logs which keys were found, never their values.
func (c *Controller) resolveSecrets(branchHash string) (map[string]string, error) {
	rows, err := c.Store.ListSecretsByBranchHash(branchHash)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	keys := make([]string, 0, len(rows))
	for _, s := range rows {
		plaintext, err := c.Crypto.Decrypt(s.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("decrypt secret %s: %w", s.Key, err)
		}
		out[s.Key] = string(plaintext)
		keys = append(keys, s.Key)
	}

	log.WithBranchHash(branchHash).Info().Strs("keys_present", keys).Msg("resolved secrets")
	return out, nil
}
