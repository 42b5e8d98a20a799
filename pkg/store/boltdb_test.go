package store

import (
	"testing"

	"github.com/cuemby/branchd/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndGetAgentByBranchHash(t *testing.T) {
	s := newTestStore(t)

	id, err := s.UpsertAgent(&types.Agent{
		RepoURL:    "https://github.com/acme/bot",
		BranchName: "main",
		BranchHash: "abc123",
		Status:     types.AgentStatusDeploying,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	a, err := s.GetAgentByBranchHash("abc123")
	require.NoError(t, err)
	require.Equal(t, id, a.ID)
	require.Equal(t, types.AgentStatusDeploying, a.Status)

	_, err = s.GetAgentByBranchHash("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAgentStatus(t *testing.T) {
	s := newTestStore(t)
	id, err := s.UpsertAgent(&types.Agent{BranchHash: "h1", Status: types.AgentStatusDeploying})
	require.NoError(t, err)

	require.NoError(t, s.UpdateAgentStatus(id, types.AgentStatusRunning, 4242, ""))

	a, err := s.GetAgent(id)
	require.NoError(t, err)
	require.Equal(t, types.AgentStatusRunning, a.Status)
	require.Equal(t, 4242, a.WorkerPID)
}

func TestSecretsJoinAcrossRecreatedAgent(t *testing.T) {
	s := newTestStore(t)

	oldID, err := s.UpsertAgent(&types.Agent{BranchHash: "hx", Status: types.AgentStatusRunning})
	require.NoError(t, err)
	require.NoError(t, s.PutSecret(oldID, "hx", "API_KEY", []byte("ciphertext-1")))

	// Simulate storage loss: Agent row recreated with a new ID under the
	// same branch_hash, secrets still attributed to oldID.
	newID, err := s.UpsertAgent(&types.Agent{BranchHash: "hx", Status: types.AgentStatusDeploying})
	require.NoError(t, err)
	require.NotEqual(t, oldID, newID)

	secrets, err := s.ListSecretsByBranchHash("hx")
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	require.Equal(t, oldID, secrets[0].AgentID)

	require.NoError(t, s.MigrateSecrets(oldID, newID))

	secrets, err = s.ListSecretsByBranchHash("hx")
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	require.Equal(t, newID, secrets[0].AgentID)

	// Migration is idempotent.
	require.NoError(t, s.MigrateSecrets(oldID, newID))
	secrets, err = s.ListSecretsByBranchHash("hx")
	require.NoError(t, err)
	require.Len(t, secrets, 1)
}

func TestPutSecretUpsert(t *testing.T) {
	s := newTestStore(t)
	id, err := s.UpsertAgent(&types.Agent{BranchHash: "h2"})
	require.NoError(t, err)

	require.NoError(t, s.PutSecret(id, "h2", "K", []byte("v1")))
	require.NoError(t, s.PutSecret(id, "h2", "K", []byte("v2")))

	secrets, err := s.ListSecretsByBranchHash("h2")
	require.NoError(t, err)
	require.Len(t, secrets, 1)
	require.Equal(t, []byte("v2"), secrets[0].Ciphertext)
}

func TestMetricsRecentAndAggregate(t *testing.T) {
	s := newTestStore(t)
	price := 42.5
	for i := 0; i < 3; i++ {
		require.NoError(t, s.InsertMetric(&types.Metric{
			BranchHash:    "hm",
			Decision:      "hold",
			Price:         &price,
			TradeExecuted: i == 1,
		}))
	}

	recent, err := s.RecentMetrics("hm", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	stats, err := s.AggregateMetrics("hm")
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalDecisions)
	require.Equal(t, 1, stats.TotalTrades)
}

func TestHasRecentMetricSince(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertMetric(&types.Metric{BranchHash: "hr", Decision: "buy"}))

	ok, err := s.HasRecentMetricSince("hr", 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.HasRecentMetricSince("hr", 9999999999)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOAuthGrantRoundtrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutOAuthGrant(&types.OAuthGrant{
		UserID:            "u1",
		RepoURL:           "https://github.com/acme/bot",
		AccessTokenCipher: []byte("enc-token"),
	}))

	g, err := s.GetOAuthGrant("u1", "https://github.com/acme/bot")
	require.NoError(t, err)
	require.Equal(t, []byte("enc-token"), g.AccessTokenCipher)

	_, err = s.GetOAuthGrant("u1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
