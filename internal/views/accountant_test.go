package views

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLedger is an in-memory Ledger with the same window semantics as the
// real backends.
type memLedger struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	retention time.Duration
	records   map[string]time.Time
	views     map[string]int
	lookups   int
	err       error
}

func newMemLedger(clock clockwork.Clock, retention time.Duration) *memLedger {
	return &memLedger{
		clock:     clock,
		retention: retention,
		records:   make(map[string]time.Time),
		views:     make(map[string]int),
	}
}

func (m *memLedger) live(key string) bool {
	at, ok := m.records[key]
	return ok && m.clock.Since(at) < m.retention
}

func (m *memLedger) Seen(_ context.Context, videoID, viewer string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return false, m.err
	}
	return m.live(fastKey(videoID, viewer)), nil
}

func (m *memLedger) Record(_ context.Context, videoID, viewer string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	key := fastKey(videoID, viewer)
	if m.live(key) {
		return false, nil
	}
	m.records[key] = m.clock.Now()
	m.views[videoID]++
	return true, nil
}

func (m *memLedger) Name() string { return "memory" }
func (m *memLedger) Close() error { return nil }

func (m *memLedger) count(videoID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.views[videoID]
}

func newTestAccountant() (*Accountant, *memLedger, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	ledger := newMemLedger(clock, 24*time.Hour)
	return NewAccountant(NewFastTier(time.Hour, clock), ledger), ledger, clock
}

func TestRegisterView_AtMostOncePerCooldown(t *testing.T) {
	a, ledger, clock := newTestAccountant()
	ctx := context.Background()

	counted, err := a.RegisterView(ctx, "v1", "alice")
	require.NoError(t, err)
	assert.True(t, counted)

	for i := 0; i < 10; i++ {
		clock.Advance(time.Minute)
		counted, err := a.RegisterView(ctx, "v1", "alice")
		require.NoError(t, err)
		assert.False(t, counted)
	}

	assert.Equal(t, 1, ledger.count("v1"))
	assert.Equal(t, 1, ledger.lookups, "fast tier hits must not reach the ledger")
}

func TestRegisterView_AfterCooldownWithinRetention(t *testing.T) {
	a, ledger, clock := newTestAccountant()
	ctx := context.Background()

	_, err := a.RegisterView(ctx, "v1", "alice")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	counted, err := a.RegisterView(ctx, "v1", "alice")
	require.NoError(t, err)
	assert.False(t, counted, "ledger still holds a live record")
	assert.Equal(t, 2, ledger.lookups)

	// The ledger hit refreshed the fast tier.
	clock.Advance(30 * time.Minute)
	_, err = a.RegisterView(ctx, "v1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.lookups)
	assert.Equal(t, 1, ledger.count("v1"))
}

func TestRegisterView_CountedAgainAfterRetention(t *testing.T) {
	a, ledger, clock := newTestAccountant()
	ctx := context.Background()

	_, err := a.RegisterView(ctx, "v1", "alice")
	require.NoError(t, err)

	clock.Advance(24*time.Hour + time.Second)
	counted, err := a.RegisterView(ctx, "v1", "alice")
	require.NoError(t, err)
	assert.True(t, counted)
	assert.Equal(t, 2, ledger.count("v1"))
}

func TestRegisterView_IndependentPairs(t *testing.T) {
	a, ledger, _ := newTestAccountant()
	ctx := context.Background()

	for _, viewer := range []string{"alice", "bob", "carol"} {
		counted, err := a.RegisterView(ctx, "v1", viewer)
		require.NoError(t, err)
		assert.True(t, counted, viewer)
	}
	counted, err := a.RegisterView(ctx, "v2", "alice")
	require.NoError(t, err)
	assert.True(t, counted)

	assert.Equal(t, 3, ledger.count("v1"))
	assert.Equal(t, 1, ledger.count("v2"))
}

func TestRegisterView_LedgerFailure(t *testing.T) {
	a, ledger, _ := newTestAccountant()
	ledger.err = errors.New("connection refused")

	counted, err := a.RegisterView(context.Background(), "v1", "alice")
	assert.Error(t, err)
	assert.False(t, counted)
	assert.Equal(t, 0, a.FastTier().Len(), "a failed lookup must not suppress the next attempt")

	ledger.err = nil
	counted, err = a.RegisterView(context.Background(), "v1", "alice")
	require.NoError(t, err)
	assert.True(t, counted)
}

func TestRegisterView_Concurrent(t *testing.T) {
	a, ledger, _ := newTestAccountant()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	counted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := a.RegisterView(ctx, "v1", "alice")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				counted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, counted)
	assert.Equal(t, 1, ledger.count("v1"))
}
