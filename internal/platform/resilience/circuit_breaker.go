package resilience

import (
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// StateListener observes breaker transitions. It runs outside the breaker lock.
type StateListener func(from, to CircuitState)

// CircuitBreaker guards a storage dependency. It opens after cfg.FailureThreshold
// consecutive failures, rejects calls for cfg.OpenTimeout, then admits up to
// cfg.HalfOpenMaxReq trials; that many successes close it again.
type CircuitBreaker struct {
	cfg   CircuitBreakerConfig
	clock clock.Clock

	mu        sync.Mutex
	state     CircuitState
	failures  int
	openedAt  int64
	trials    int
	successes int
	listener  StateListener
}

// NewCircuitBreaker normalizes cfg; a nil clk uses the wall clock.
func NewCircuitBreaker(cfg CircuitBreakerConfig, clk clock.Clock) *CircuitBreaker {
	if clk == nil {
		clk = clock.New()
	}
	return &CircuitBreaker{
		cfg:   NormalizeCircuitBreakerConfig(cfg),
		clock: clk,
		state: CircuitStateClosed,
	}
}

// OnStateChange registers fn, replacing any earlier listener. Nil-safe.
func (b *CircuitBreaker) OnStateChange(fn StateListener) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.listener = fn
	b.mu.Unlock()
}

// Execute runs fn when the breaker admits it. Errors classified by isFailure
// count against the breaker; a nil isFailure counts every non-nil error.
// A nil breaker runs fn directly.
func (b *CircuitBreaker) Execute(fn func() error, isFailure func(error) bool) error {
	if b == nil {
		return fn()
	}
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.settle(err != nil && (isFailure == nil || isFailure(err)))
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.cooledDown() {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) admit() error {
	b.mu.Lock()
	from := b.state
	if b.state == CircuitStateOpen {
		if !b.cooledDown() {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.enter(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.trials >= b.cfg.HalfOpenMaxReq {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.trials++
	}
	b.unlockAndNotify(from)
	return nil
}

func (b *CircuitBreaker) settle(failed bool) {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case CircuitStateClosed:
		if !failed {
			b.failures = 0
			break
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.enter(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		if b.trials > 0 {
			b.trials--
		}
		if failed {
			b.enter(CircuitStateOpen)
			break
		}
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxReq && b.trials == 0 {
			b.enter(CircuitStateClosed)
		}
	case CircuitStateOpen:
		if failed {
			b.openedAt = b.clock.Now().UnixNano()
		}
	}
	b.unlockAndNotify(from)
}

// enter resets the counters for state; callers hold mu.
func (b *CircuitBreaker) enter(state CircuitState) {
	b.state = state
	b.failures = 0
	b.trials = 0
	b.successes = 0
	if state == CircuitStateOpen {
		b.openedAt = b.clock.Now().UnixNano()
	}
}

func (b *CircuitBreaker) cooledDown() bool {
	return b.clock.Now().UnixNano()-b.openedAt >= int64(b.cfg.OpenTimeout)
}

func (b *CircuitBreaker) unlockAndNotify(from CircuitState) {
	to := b.state
	listener := b.listener
	b.mu.Unlock()
	if listener != nil && from != to {
		listener(from, to)
	}
}
