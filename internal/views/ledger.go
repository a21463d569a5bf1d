package views

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"video-platform/internal/metrics"
)

// Ledger is the durable, self-expiring record of counted views. It is the
// authority on whether a view counts.
type Ledger interface {
	// Seen reports whether the pair has a live record.
	Seen(ctx context.Context, videoID, viewer string) (bool, error)
	// Record inserts a record if none is live and, only then, adds one to the
	// video's view counter. Exactly one of several concurrent callers for the
	// same pair gets true.
	Record(ctx context.Context, videoID, viewer string) (bool, error)
	// Name identifies the backend in logs and metrics.
	Name() string
	Close() error
}

// ViewCounter increments the persisted view count of a video. Ledgers that
// keep their records outside SQLite use it after a successful insert.
type ViewCounter interface {
	IncrementViews(ctx context.Context, videoID string) error
}

func observeLedger(backend, operation string, start time.Time) {
	metrics.ViewLedgerDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}

// SQLStore is the part of the database the SQLite ledger uses.
type SQLStore interface {
	RecordView(ctx context.Context, videoID, viewer string, at time.Time, retention time.Duration) (bool, error)
	HasRecentView(ctx context.Context, videoID, viewer string, since time.Time) (bool, error)
	PurgeViews(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLLedger keeps view records in the views table next to the counters, so
// the insert and the increment share one transaction. Expired rows are
// ignored on read, replaced on insert and removed by the purger.
type SQLLedger struct {
	store     SQLStore
	retention time.Duration
	clock     clockwork.Clock

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewSQLLedger returns a ledger over store whose records live for retention.
func NewSQLLedger(store SQLStore, retention time.Duration, clock clockwork.Clock) *SQLLedger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SQLLedger{store: store, retention: retention, clock: clock}
}

// Name implements Ledger.
func (l *SQLLedger) Name() string { return "sqlite" }

// Seen implements Ledger.
func (l *SQLLedger) Seen(ctx context.Context, videoID, viewer string) (bool, error) {
	defer observeLedger(l.Name(), "seen", time.Now())
	return l.store.HasRecentView(ctx, videoID, viewer, l.clock.Now().Add(-l.retention))
}

// Record implements Ledger.
func (l *SQLLedger) Record(ctx context.Context, videoID, viewer string) (bool, error) {
	defer observeLedger(l.Name(), "record", time.Now())
	return l.store.RecordView(ctx, videoID, viewer, l.clock.Now(), l.retention)
}

// Purge deletes expired records.
func (l *SQLLedger) Purge(ctx context.Context) (int64, error) {
	defer observeLedger(l.Name(), "purge", time.Now())
	n, err := l.store.PurgeViews(ctx, l.clock.Now().Add(-l.retention))
	if err != nil {
		return 0, err
	}
	metrics.ViewLedgerPurged.Add(float64(n))
	return n, nil
}

// StartPurger runs Purge every interval until Close.
func (l *SQLLedger) StartPurger(interval time.Duration) {
	l.stopChan = make(chan struct{})
	l.doneChan = make(chan struct{})

	go func() {
		defer close(l.doneChan)

		ticker := l.clock.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				n, err := l.Purge(context.Background())
				if err != nil {
					log.Warn("View ledger purge failed: %v", err)
					continue
				}
				if n > 0 {
					log.Info("Purged %d expired view records", n)
				}
			case <-l.stopChan:
				return
			}
		}
	}()
}

// Close stops the purger. The database itself is closed by its owner.
func (l *SQLLedger) Close() error {
	if l.stopChan == nil {
		return nil
	}
	l.stopOnce.Do(func() { close(l.stopChan) })
	<-l.doneChan
	return nil
}
