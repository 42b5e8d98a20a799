package telemetry

import (
	"time"

	"github.com/cuemby/branchd/pkg/store"
	"github.com/cuemby/branchd/pkg/types"
)

// Collector periodically refreshes gauge metrics that are cheaper to
// compute from a full table scan than to keep incrementally in sync,
// the same shape the teacher uses to poll its manager on a ticker.
type Collector struct {
	store  store.Store
	stopCh chan struct{}
}

// NewCollector creates a collector over the given store.
func NewCollector(s store.Store) *Collector {
	return &Collector{store: s, stopCh: make(chan struct{})}
}

// Start begins collecting on a 15s ticker, collecting once immediately.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	agents, err := c.store.ListAgents()
	if err != nil {
		return
	}

	counts := map[types.AgentStatus]int{}
	for _, a := range agents {
		counts[a.Status]++
	}
	for _, status := range []types.AgentStatus{
		types.AgentStatusDeploying,
		types.AgentStatusRunning,
		types.AgentStatusError,
		types.AgentStatusStopped,
	} {
		AgentsTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
