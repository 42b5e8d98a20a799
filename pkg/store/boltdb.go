package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cuemby/branchd/pkg/types"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketAgents           = []byte("agents")
	bucketAgentsByHash     = []byte("agents_by_branch_hash")
	bucketSecrets          = []byte("secrets")
	bucketSecretsByHash    = []byte("secrets_by_branch_hash")
	bucketMetrics          = []byte("metrics")
	bucketOAuthGrants      = []byte("oauth_grants")
)

// BoltStore implements Store on an embedded bbolt database. Relational
// joins the spec requires -- listing every secret that shares a
// branch_hash regardless of which agent row currently owns it -- are
// emulated with secondary-index buckets rather than pulling in a SQL
// engine the rest of the stack never used.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) branchd.db under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "branchd.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{
			bucketAgents, bucketAgentsByHash,
			bucketSecrets, bucketSecretsByHash,
			bucketMetrics, bucketOAuthGrants,
		} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

// --- Agents ---

func (s *BoltStore) UpsertAgent(a *types.Agent) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = time.Now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(a)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketAgents).Put([]byte(a.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketAgentsByHash).Put([]byte(a.BranchHash), []byte(a.ID))
	})
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *BoltStore) GetAgent(id string) (*types.Agent, error) {
	var a types.Agent
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAgents).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *BoltStore) GetAgentByBranchHash(branchHash string) (*types.Agent, error) {
	var agentID string
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketAgentsByHash).Get([]byte(branchHash))
		if id == nil {
			return ErrNotFound
		}
		agentID = string(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetAgent(agentID)
}

func (s *BoltStore) ListAgents() ([]*types.Agent, error) {
	var agents []*types.Agent
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAgents).ForEach(func(_, v []byte) error {
			var a types.Agent
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			agents = append(agents, &a)
			return nil
		})
	})
	return agents, err
}

func (s *BoltStore) UpdateAgentStatus(id string, status types.AgentStatus, pid int, lastErr string) error {
	a, err := s.GetAgent(id)
	if err != nil {
		return err
	}
	a.Status = status
	a.WorkerPID = pid
	a.LastError = lastErr
	_, err = s.UpsertAgent(a)
	return err
}

func (s *BoltStore) DeleteAgent(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAgents).Delete([]byte(id))
	})
}

// --- Secrets ---

func secretKey(agentID, key string) []byte {
	return []byte(agentID + "\x00" + key)
}

func (s *BoltStore) PutSecret(agentID, branchHash, key string, ciphertext []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		now := time.Now()
		secret := &types.Secret{
			ID:         agentID + "/" + key,
			AgentID:    agentID,
			BranchHash: branchHash,
			Key:        key,
			Ciphertext: ciphertext,
			UpdatedAt:  now,
		}
		if existing := tx.Bucket(bucketSecrets).Get(secretKey(agentID, key)); existing != nil {
			var prev types.Secret
			if err := json.Unmarshal(existing, &prev); err == nil {
				secret.CreatedAt = prev.CreatedAt
			}
		} else {
			secret.CreatedAt = now
		}
		data, err := json.Marshal(secret)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketSecrets).Put(secretKey(agentID, key), data); err != nil {
			return err
		}
		return addAgentToHashIndex(tx, branchHash, agentID)
	})
}

// addAgentToHashIndex records that agentID has (or had) secrets under
// branchHash, so ListSecretsByBranchHash can find them even after the
// Agent row identified by branchHash is recreated with a new ID.
func addAgentToHashIndex(tx *bolt.Tx, branchHash, agentID string) error {
	b := tx.Bucket(bucketSecretsByHash)
	var ids []string
	if data := b.Get([]byte(branchHash)); data != nil {
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if id == agentID {
			return nil
		}
	}
	ids = append(ids, agentID)
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return b.Put([]byte(branchHash), data)
}

func (s *BoltStore) ListSecretsByBranchHash(branchHash string) ([]*types.Secret, error) {
	var secrets []*types.Secret
	err := s.db.View(func(tx *bolt.Tx) error {
		var agentIDs []string
		if data := tx.Bucket(bucketSecretsByHash).Get([]byte(branchHash)); data != nil {
			if err := json.Unmarshal(data, &agentIDs); err != nil {
				return err
			}
		}
		if current := tx.Bucket(bucketAgentsByHash).Get([]byte(branchHash)); current != nil {
			agentIDs = appendUnique(agentIDs, string(current))
		}

		b := tx.Bucket(bucketSecrets)
		for _, agentID := range agentIDs {
			prefix := []byte(agentID + "\x00")
			c := b.Cursor()
			for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
				var secret types.Secret
				if err := json.Unmarshal(v, &secret); err != nil {
					return err
				}
				secrets = append(secrets, &secret)
			}
		}
		return nil
	})
	return secrets, err
}

func (s *BoltStore) MigrateSecrets(fromAgentID, toAgentID string) error {
	if fromAgentID == toAgentID {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSecrets)
		prefix := []byte(fromAgentID + "\x00")
		c := b.Cursor()
		var toMigrate []*types.Secret
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var secret types.Secret
			if err := json.Unmarshal(v, &secret); err != nil {
				return err
			}
			toMigrate = append(toMigrate, &secret)
		}
		for _, secret := range toMigrate {
			secret.AgentID = toAgentID
			data, err := json.Marshal(secret)
			if err != nil {
				return err
			}
			if err := b.Put(secretKey(toAgentID, secret.Key), data); err != nil {
				return err
			}
			if err := addAgentToHashIndex(tx, secret.BranchHash, toAgentID); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- Metrics ---

func metricKey(branchHash string, ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s\x00%020d\x00%s", branchHash, ts.UnixNano(), id))
}

func (s *BoltStore) InsertMetric(m *types.Metric) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMetrics).Put(metricKey(m.BranchHash, m.Timestamp, m.ID), data)
	})
}

func (s *BoltStore) RecentMetrics(branchHash string, limit int) ([]*types.Metric, error) {
	var metrics []*types.Metric
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMetrics)
		prefix := []byte(branchHash + "\x00")
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if !hasPrefix(k, prefix) {
				if string(k) < string(prefix) {
					break
				}
				continue
			}
			var m types.Metric
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			metrics = append(metrics, &m)
			if limit > 0 && len(metrics) >= limit {
				break
			}
		}
		return nil
	})
	return metrics, err
}

func (s *BoltStore) AggregateMetrics(branchHash string) (types.Stats, error) {
	var stats types.Stats
	metrics, err := s.RecentMetrics(branchHash, 0)
	if err != nil {
		return stats, err
	}
	stats.TotalDecisions = len(metrics)
	for _, m := range metrics {
		if m.Timestamp.After(stats.LastDecisionAt) {
			stats.LastDecisionAt = m.Timestamp
		}
		if m.TradeExecuted {
			stats.TotalTrades++
			if m.Timestamp.After(stats.LastTradeAt) {
				stats.LastTradeAt = m.Timestamp
			}
		}
	}
	return stats, nil
}

func (s *BoltStore) HasRecentMetricSince(branchHash string, cutoffUnix int64) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMetrics)
		prefix := []byte(branchHash + "\x00")
		c := b.Cursor()
		// The branch's newest metric is the last key before "<branchHash>\x01".
		k, v := c.Seek([]byte(branchHash + "\x01"))
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
		if k == nil || !hasPrefix(k, prefix) {
			return nil
		}
		var m types.Metric
		if err := json.Unmarshal(v, &m); err != nil {
			return err
		}
		found = m.Timestamp.Unix() >= cutoffUnix
		return nil
	})
	return found, err
}

// --- OAuth grants ---

func oauthKey(userID, repoURL string) []byte {
	return []byte(userID + "\x00" + repoURL)
}

func (s *BoltStore) PutOAuthGrant(g *types.OAuthGrant) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(g)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketOAuthGrants).Put(oauthKey(g.UserID, g.RepoURL), data)
	})
}

func (s *BoltStore) GetOAuthGrant(userID, repoURL string) (*types.OAuthGrant, error) {
	var g types.OAuthGrant
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketOAuthGrants).Get(oauthKey(userID, repoURL))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &g)
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// --- helpers ---

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

func appendUnique(list []string, v string) []string {
	for _, item := range list {
		if item == v {
			return list
		}
	}
	return append(list, v)
}

