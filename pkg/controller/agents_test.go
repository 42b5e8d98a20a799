package controller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/branchd/pkg/types"
)

func TestListAgentsFiltersByRepo(t *testing.T) {
	c := newTestController(t)
	_, err := c.Store.UpsertAgent(&types.Agent{BranchHash: "h1", RepoURL: "https://github.com/acme/a", BranchName: "main"})
	require.NoError(t, err)
	_, err = c.Store.UpsertAgent(&types.Agent{BranchHash: "h2", RepoURL: "https://github.com/acme/b", BranchName: "main"})
	require.NoError(t, err)

	all, err := c.ListAgents("")
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := c.ListAgents("https://github.com/acme/a")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "h1", filtered[0].BranchHash)
}

func TestGetAgentNotFound(t *testing.T) {
	c := newTestController(t)
	_, err := c.GetAgent("does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCheckSecretsReportsPresence(t *testing.T) {
	c := newTestController(t)
	branchHash := "h3"
	agentID, err := c.Store.UpsertAgent(&types.Agent{BranchHash: branchHash})
	require.NoError(t, err)

	cipher, err := c.Crypto.Encrypt([]byte("v"))
	require.NoError(t, err)
	require.NoError(t, c.Store.PutSecret(agentID, branchHash, "API_KEY", cipher))

	status, err := c.CheckSecrets(branchHash, []string{"API_KEY", "OTHER_KEY"})
	require.NoError(t, err)
	require.True(t, status["API_KEY"])
	require.False(t, status["OTHER_KEY"])
}
