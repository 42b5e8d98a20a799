package controller

import (
	"context"
	"sort"
	"time"

	"github.com/cuemby/branchd/pkg/chain"
	"github.com/cuemby/branchd/pkg/types"
)

// LogLine is one entry in a synthesized observable log: either a
// reported metric or a line of process output, ordered by time.
type LogLine struct {
	Timestamp time.Time
	Source    string // "metric" or "process"
	Text      string
}

// Logs merges an agent's metric history with its supervised process's
// recent stdout/stderr into a single time-ordered view. Process output
// retrieval is best effort: if the supervisor has nothing tracked
// under this branch (never started, or restarted since), the metric
// history alone is returned rather than an error.
func (c *Controller) Logs(ctx context.Context, branchHash string, metricLimit int) ([]LogLine, error) {
	metrics, err := c.Store.RecentMetrics(branchHash, metricLimit)
	if err != nil {
		return nil, err
	}

	lines := make([]LogLine, 0, len(metrics))
	for _, m := range metrics {
		lines = append(lines, LogLine{
			Timestamp: m.Timestamp,
			Source:    "metric",
			Text:      metricSummary(m),
		})
	}

	name := chain.SupervisorName(branchHash)
	if out, ok := c.Supervisor.Logs(ctx, name, 200); ok {
		for _, e := range out {
			lines = append(lines, LogLine{Timestamp: e.Time, Source: "process", Text: e.Text})
		}
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].Timestamp.Before(lines[j].Timestamp) })
	return lines, nil
}

func metricSummary(m *types.Metric) string {
	if m.TradeExecuted {
		return "decision=" + m.Decision + " trade_tx=" + m.TradeTxHash
	}
	return "decision=" + m.Decision
}
