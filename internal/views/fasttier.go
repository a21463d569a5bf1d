package views

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"

	"video-platform/internal/metrics"
)

const fastTierShards = 32

// FastTier remembers when each (video, viewer) pair was last seen so repeat
// views inside the cooldown skip the durable ledger. It is local to the
// process and may forget entries at any time.
type FastTier struct {
	shards   [fastTierShards]fastShard
	cooldown time.Duration
	clock    clockwork.Clock

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

type fastShard struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewFastTier creates an empty tier with the given cooldown.
func NewFastTier(cooldown time.Duration, clock clockwork.Clock) *FastTier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	f := &FastTier{cooldown: cooldown, clock: clock}
	for i := range f.shards {
		f.shards[i].seen = make(map[string]time.Time)
	}
	return f
}

func fastKey(videoID, viewer string) string {
	return videoID + "\x00" + viewer
}

func (f *FastTier) shard(key string) *fastShard {
	return &f.shards[xxhash.Sum64String(key)%fastTierShards]
}

// Fresh reports whether the pair was seen less than one cooldown ago.
// It never updates the entry.
func (f *FastTier) Fresh(videoID, viewer string) bool {
	key := fastKey(videoID, viewer)
	s := f.shard(key)

	s.mu.Lock()
	last, ok := s.seen[key]
	s.mu.Unlock()

	return ok && f.clock.Since(last) < f.cooldown
}

// Touch records the pair as seen now.
func (f *FastTier) Touch(videoID, viewer string) {
	key := fastKey(videoID, viewer)
	s := f.shard(key)
	now := f.clock.Now()

	s.mu.Lock()
	s.seen[key] = now
	s.mu.Unlock()
}

// Sweep evicts entries older than the cooldown and returns how many were
// removed.
func (f *FastTier) Sweep() int {
	cutoff := f.clock.Now().Add(-f.cooldown)
	evicted := 0

	for i := range f.shards {
		s := &f.shards[i]
		s.mu.Lock()
		for key, last := range s.seen {
			if !last.After(cutoff) {
				delete(s.seen, key)
				evicted++
			}
		}
		s.mu.Unlock()
	}

	metrics.ViewFastTierEvictions.Add(float64(evicted))
	metrics.ViewFastTierEntries.Set(float64(f.Len()))
	return evicted
}

// Len returns the number of entries currently held.
func (f *FastTier) Len() int {
	n := 0
	for i := range f.shards {
		s := &f.shards[i]
		s.mu.Lock()
		n += len(s.seen)
		s.mu.Unlock()
	}
	return n
}

// StartSweeper runs Sweep every interval until Stop is called.
func (f *FastTier) StartSweeper(interval time.Duration) {
	f.stopChan = make(chan struct{})
	f.doneChan = make(chan struct{})
	go f.sweepLoop(interval)
}

// Stop stops the sweeper and waits for it to exit. Safe to call when the
// sweeper was never started.
func (f *FastTier) Stop() {
	if f.stopChan == nil {
		return
	}
	f.stopOnce.Do(func() { close(f.stopChan) })
	<-f.doneChan
}

func (f *FastTier) sweepLoop(interval time.Duration) {
	defer close(f.doneChan)

	ticker := f.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if n := f.Sweep(); n > 0 {
				log.Debug("Fast tier sweep evicted %d entries, %d remain", n, f.Len())
			}
		case <-f.stopChan:
			return
		}
	}
}
