// Package circuit implements a minimal counting circuit breaker.
//
// The breaker tracks consecutive failures and successes. After
// failureThreshold consecutive failures it opens and callers should use their
// fallback path; after successThreshold consecutive successes it closes
// again. A success resets the failure count and a failure resets the success
// count, so flapping dependencies keep the breaker in its current state.
package circuit

import "sync"

// State is the current position of the breaker.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// StateChange reports transitions caused by a recorded outcome, so callers
// can log or emit metrics exactly once per transition.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker is a concurrency-safe counting circuit breaker.
type Breaker struct {
	mu               sync.Mutex
	name             string
	failureThreshold int
	successThreshold int
	state            State
	failures         int
	successes        int
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close the circuit.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// New constructs a closed breaker with default thresholds (5 failures to
// open, 1 success to close).
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 1,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the breaker's name for logging and metrics.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether callers should use their fallback path.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateOpen
}

// RecordFailure records a failed call. Returns whether the fallback should be
// used and whether this call transitioned the breaker.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0

	if b.state == StateOpen {
		return true, StateChange{}
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.failures = 0
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess records a successful call. Returns whether the primary path
// should be used and whether this call transitioned the breaker.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0

	if b.state == StateClosed {
		return true, StateChange{}
	}

	b.successes++
	if b.successes >= b.successThreshold {
		b.state = StateClosed
		b.successes = 0
		return true, StateChange{Closed: true}
	}
	return false, StateChange{}
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}
