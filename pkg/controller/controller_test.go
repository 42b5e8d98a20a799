package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/branchd/pkg/crypto"
	"github.com/cuemby/branchd/pkg/store"
	"github.com/cuemby/branchd/pkg/supervisor"
	"github.com/cuemby/branchd/pkg/types"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	s, err := store.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	box, err := crypto.NewBoxFromPassphrase("test-master-key")
	require.NoError(t, err)

	return &Controller{
		Store:      s,
		Crypto:     box,
		Supervisor: supervisor.New(),
		Config:     Config{BackendURL: "https://backend.example", RPCURL: "https://rpc.example"},
		locks:      newBranchLocks(),
	}
}

func TestBuildEnv(t *testing.T) {
	c := newTestController(t)
	agent := &types.Agent{
		ContractAddress: "0xabc",
		RepoURL:         "https://github.com/acme/bot",
		BranchName:      "main",
	}
	env := c.buildEnv(agent, map[string]string{"API_KEY": "shh", "BACKEND_URL": "https://override.example"})

	require.Equal(t, "0xabc", env["AGENT_CONTRACT_ADDRESS"])
	require.Equal(t, "https://github.com/acme/bot", env["REPO_URL"])
	require.Equal(t, "main", env["BRANCH_NAME"])
	require.Equal(t, "https://rpc.example", env["RPC_URL"])
	require.Equal(t, "shh", env["API_KEY"])
	// secrets win on collision with derived values
	require.Equal(t, "https://override.example", env["BACKEND_URL"])
}

func TestMigrateOrphanSecretsAndResolve(t *testing.T) {
	c := newTestController(t)
	branchHash := "deadbeef"

	oldID, err := c.Store.UpsertAgent(&types.Agent{BranchHash: branchHash, Status: types.AgentStatusError})
	require.NoError(t, err)

	cipher, err := c.Crypto.Encrypt([]byte("secret-value"))
	require.NoError(t, err)
	require.NoError(t, c.Store.PutSecret(oldID, branchHash, "API_KEY", cipher))

	newID, err := c.Store.UpsertAgent(&types.Agent{BranchHash: branchHash, Status: types.AgentStatusDeploying})
	require.NoError(t, err)
	require.NotEqual(t, oldID, newID)

	require.NoError(t, c.migrateOrphanSecrets(branchHash, newID))

	secrets, err := c.resolveSecrets(branchHash)
	require.NoError(t, err)
	require.Equal(t, "secret-value", secrets["API_KEY"])
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name         string
		procStatus   supervisor.Status
		recentMetric bool
		want         types.AgentStatus
	}{
		{"online always running", supervisor.StatusOnline, false, types.AgentStatusRunning},
		{"stopped with recent metric runs outside supervisor", supervisor.StatusStopped, true, types.AgentStatusRunning},
		{"stopped with no metric is error", supervisor.StatusStopped, false, types.AgentStatusError},
		{"errored with recent metric runs outside supervisor", supervisor.StatusErrored, true, types.AgentStatusRunning},
		{"errored with no metric is error", supervisor.StatusErrored, false, types.AgentStatusError},
		{"missing with recent metric stays running", supervisor.StatusMissing, true, types.AgentStatusRunning},
		{"missing with no metric is error", supervisor.StatusMissing, false, types.AgentStatusError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := deriveStatus(tc.procStatus, tc.recentMetric, types.AgentStatusRunning)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestLogsMergesMetricsWithNoProcessTracked(t *testing.T) {
	c := newTestController(t)
	branchHash := "cafebabe"
	agentID, err := c.Store.UpsertAgent(&types.Agent{BranchHash: branchHash, Status: types.AgentStatusRunning})
	require.NoError(t, err)

	require.NoError(t, c.Store.InsertMetric(&types.Metric{AgentID: agentID, BranchHash: branchHash, Decision: "hold"}))

	lines, err := c.Logs(context.Background(), branchHash, 10)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "metric", lines[0].Source)
}
