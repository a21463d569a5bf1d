package filesystem

import "sync/atomic"

// RetryEvent is a step in the ESTALE retry loop.
type RetryEvent string

const (
	RetryStale     RetryEvent = "stale"     // an attempt hit ESTALE
	RetryScheduled RetryEvent = "scheduled" // another attempt follows after backoff
	RetryRecovered RetryEvent = "recovered" // an attempt after the first succeeded
	RetryExhausted RetryEvent = "exhausted" // the retry budget ran out
)

// Observer receives timings for upload and thumbnail volume access. volume is
// the label from the VolumeResolver ("uploads", "data" or "unknown") and op is
// one of "stat", "write" or "remove".
type Observer interface {
	// ObserveOperation is called once per operation. retries counts the
	// attempts after the first.
	ObserveOperation(volume, op string, seconds float64, retries int, err error)
	ObserveRetry(volume, op string, event RetryEvent)
}

type observerBox struct{ o Observer }

var current atomic.Value // observerBox

// SetObserver installs o for all later operations. nil disables recording.
func SetObserver(o Observer) {
	current.Store(observerBox{o})
}

func observe() Observer {
	box, _ := current.Load().(observerBox)
	return box.o
}
