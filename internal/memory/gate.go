package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"video-platform/internal/logging"
	"video-platform/internal/metrics"
)

// GateConfig controls transcode admission.
type GateConfig struct {
	// Limit in bytes; 0 falls back to GOMEMLIMIT, and no limit disables the gate.
	Limit int64
	// Admission pauses at Critical and resumes below Resume (fractions of Limit).
	Critical float64
	Resume   float64
	Interval time.Duration
}

// DefaultGateConfig pauses admission at 85% heap use and resumes below 70%.
func DefaultGateConfig() GateConfig {
	return GateConfig{Critical: 0.85, Resume: 0.7, Interval: 5 * time.Second}
}

// Gate holds back new transcode jobs while the heap is near its limit.
type Gate struct {
	cfg    GateConfig
	clock  clockwork.Clock
	sample func() uint64

	mu      sync.Mutex
	paused  bool
	resumed chan struct{}

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewGate returns a Gate. A nil clock uses the real clock.
func NewGate(cfg GateConfig, clock clockwork.Clock) *Gate {
	if cfg.Limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			cfg.Limit = l
		}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gate{
		cfg:     cfg,
		clock:   clock,
		sample:  heapAlloc,
		resumed: make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// Enabled reports whether a limit is known.
func (g *Gate) Enabled() bool { return g.cfg.Limit > 0 }

// Start samples memory every Interval until Stop.
func (g *Gate) Start() {
	if !g.Enabled() || g.stopChan != nil {
		return
	}
	g.stopChan = make(chan struct{})
	g.doneChan = make(chan struct{})
	ticker := g.clock.NewTicker(g.cfg.Interval)
	go func() {
		defer close(g.doneChan)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				g.check()
			case <-g.stopChan:
				return
			}
		}
	}()
}

// Stop halts sampling and releases any waiters.
func (g *Gate) Stop() {
	if g.stopChan == nil {
		return
	}
	close(g.stopChan)
	<-g.doneChan
	g.setPaused(false)
}

func (g *Gate) check() {
	usage := float64(g.sample()) / float64(g.cfg.Limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= g.cfg.Critical:
		if g.setPaused(true) {
			logging.Warn("Memory at %.0f%% of limit, pausing transcode admission", usage*100)
			go runtime.GC()
		}
	case usage < g.cfg.Resume:
		if g.setPaused(false) {
			logging.Info("Memory at %.0f%% of limit, resuming transcode admission", usage*100)
		}
	}
}

// setPaused reports whether the state changed.
func (g *Gate) setPaused(p bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused == p {
		return false
	}
	g.paused = p
	if p {
		metrics.TranscodeAdmissionPaused.Set(1)
	} else {
		metrics.TranscodeAdmissionPaused.Set(0)
		close(g.resumed)
		g.resumed = make(chan struct{})
	}
	return true
}

// Paused reports whether admission is currently held.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Admit blocks while admission is paused.
func (g *Gate) Admit(ctx context.Context) error {
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	ch := g.resumed
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
