package metrics

import (
	"time"

	"video-platform/internal/logging"
)

// StatsProvider supplies values for gauges that are sampled rather than
// updated inline.
type StatsProvider interface {
	// UpdateDBMetrics refreshes database connection gauges.
	UpdateDBMetrics()
}

// FastTierSizer reports the number of entries in the view cooldown tier.
type FastTierSizer interface {
	Len() int
}

// Collector periodically samples gauges.
type Collector struct {
	statsProvider StatsProvider
	fastTier      FastTierSizer
	interval      time.Duration
	stopChan      chan struct{}
	doneChan      chan struct{}
}

// NewCollector creates a new metrics collector. Either source may be nil.
func NewCollector(provider StatsProvider, fastTier FastTierSizer, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		fastTier:      fastTier,
		interval:      interval,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and waits for the loop to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider != nil {
		c.statsProvider.UpdateDBMetrics()
	}
	if c.fastTier != nil {
		n := c.fastTier.Len()
		ViewFastTierEntries.Set(float64(n))
		logging.Debug("Metrics collected: fast tier entries=%d", n)
	}
}
