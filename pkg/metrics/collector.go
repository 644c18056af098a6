package metrics

import (
	"context"
	"time"

	"github.com/ctc-oss/foreman/pkg/types"
)

// Source is the narrow read surface Collector polls. pkg/storage.BoltStore
// satisfies it directly.
type Source interface {
	CountExecutionsByStatus(ctx context.Context) (map[types.ExecutionStatus]int, error)
	CountPausedNodes(ctx context.Context) (int, error)
}

// Collector periodically samples gauge metrics from a Source, mirroring
// the teacher's ticker-driven collection loop.
type Collector struct {
	source Source
	stopCh chan struct{}
}

// NewCollector creates a metrics collector over source.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15 second interval.
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
	ctx := context.Background()

	if counts, err := c.source.CountExecutionsByStatus(ctx); err == nil {
		for status, count := range counts {
			ExecutionsTotal.WithLabelValues(string(status)).Set(float64(count))
		}
	}

	if paused, err := c.source.CountPausedNodes(ctx); err == nil {
		NodesPausedTotal.Set(float64(paused))
	}
}
