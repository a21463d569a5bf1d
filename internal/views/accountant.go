package views

import (
	"context"

	"video-platform/internal/logging"
	"video-platform/internal/metrics"
)

var log = logging.For("views")

// Decision is the outcome of RegisterView.
type Decision string

const (
	// Counted means a new ledger record was written and the counter incremented.
	Counted Decision = "counted"
	// FastTierHit means the viewer was seen within the cooldown.
	FastTierHit Decision = "fast_tier"
	// LedgerHit means the ledger already holds a live record.
	LedgerHit Decision = "ledger"
	// Failed means the ledger could not be consulted; nothing was counted.
	Failed Decision = "error"
)

// Accountant decides whether a view counts, consulting the fast tier first
// and the durable ledger on a miss.
type Accountant struct {
	fast   *FastTier
	ledger Ledger
}

// NewAccountant combines a fast tier with a ledger.
func NewAccountant(fast *FastTier, ledger Ledger) *Accountant {
	return &Accountant{fast: fast, ledger: ledger}
}

// FastTier returns the in-memory tier, for metrics and the sweeper.
func (a *Accountant) FastTier() *FastTier {
	return a.fast
}

// RegisterView counts at most one view per (video, viewer) per retention
// window. A fast-tier hit does not refresh the entry; a ledger hit does.
// Errors come from the ledger and leave the counter unchanged; callers
// serving content should log them and carry on.
func (a *Accountant) RegisterView(ctx context.Context, videoID, viewer string) (bool, error) {
	decision, err := a.decide(ctx, videoID, viewer)
	metrics.ViewDecisionsTotal.WithLabelValues(string(decision)).Inc()
	return decision == Counted, err
}

func (a *Accountant) decide(ctx context.Context, videoID, viewer string) (Decision, error) {
	if a.fast.Fresh(videoID, viewer) {
		return FastTierHit, nil
	}

	seen, err := a.ledger.Seen(ctx, videoID, viewer)
	if err != nil {
		log.Warn("%s ledger lookup for video %s failed: %v", a.ledger.Name(), videoID, err)
		return Failed, err
	}
	if seen {
		a.fast.Touch(videoID, viewer)
		return LedgerHit, nil
	}

	inserted, err := a.ledger.Record(ctx, videoID, viewer)
	if err != nil {
		log.Warn("%s ledger insert for video %s failed: %v", a.ledger.Name(), videoID, err)
		return Failed, err
	}
	a.fast.Touch(videoID, viewer)
	if !inserted {
		// lost the race to a concurrent request for the same pair
		return LedgerHit, nil
	}

	log.Debug("Counted view of %s", videoID)
	return Counted, nil
}
