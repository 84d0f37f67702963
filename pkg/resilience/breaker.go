// Package resilience guards calls to flaky dependencies.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"reactor/backend/pkg/logger"
)

// ErrOpen is returned without calling the dependency while the breaker is open.
var ErrOpen = errors.New("circuit open")

// State is the current mode of a breaker
type State string

const (
	// StateClosed lets every call through
	StateClosed State = "closed"
	// StateOpen short-circuits calls until the retry timeout passes
	StateOpen State = "open"
	// StateHalfOpen lets probe calls through to decide whether to close again
	StateHalfOpen State = "half-open"
)

// Config holds configuration for a breaker
type Config struct {
	Name string
	// FailureThreshold consecutive failures open the breaker
	FailureThreshold uint
	// SuccessThreshold probe successes close it again
	SuccessThreshold uint
	RetryTimeout     time.Duration
}

// DefaultConfig returns a default breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     30 * time.Second,
	}
}

// Snapshot is a point-in-time view of a breaker's counters
type Snapshot struct {
	Name          string    `json:"name"`
	State         State     `json:"state"`
	Requests      uint64    `json:"requests"`
	Failures      uint64    `json:"failures"`
	Rejected      uint64    `json:"rejected"`
	Opened        uint64    `json:"opened"`
	LastFailureAt time.Time `json:"last_failure_at"`
}

// Breaker implements the circuit breaker pattern
type Breaker struct {
	mutex    sync.Mutex
	cfg      Config
	state    State
	failures uint
	probes   uint
	retryAt  time.Time
	now      func() time.Time
	log      *logger.Logger
	stats    Snapshot
}

// New creates a closed breaker
func New(cfg Config, log *logger.Logger) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	return &Breaker{
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
		log:   log,
		stats: Snapshot{Name: cfg.Name},
	}
}

// Execute runs fn unless the breaker is open. Context cancellation by the
// caller is not counted as a dependency failure.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.allow() {
		return ErrOpen
	}

	err := fn(ctx)
	switch {
	case err == nil:
		b.recordSuccess()
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
	default:
		b.recordFailure(err)
	}
	return err
}

func (b *Breaker) allow() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.stats.Requests++
	switch b.state {
	case StateOpen:
		if b.now().Before(b.retryAt) {
			b.stats.Rejected++
			return false
		}
		b.state = StateHalfOpen
		b.probes = 0
		b.log.Info("Circuit breaker half-open", "name", b.cfg.Name)
		return true
	case StateHalfOpen:
		if b.probes >= b.cfg.SuccessThreshold {
			b.stats.Rejected++
			return false
		}
	}
	return true
}

func (b *Breaker) recordSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.probes++
		if b.probes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
			b.log.Info("Circuit breaker closed", "name", b.cfg.Name)
		}
	}
}

func (b *Breaker) recordFailure(err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.stats.Failures++
	b.stats.LastFailureAt = b.now()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.open(err)
		}
	case StateHalfOpen:
		b.open(err)
	}
}

// open must be called with the mutex held
func (b *Breaker) open(err error) {
	b.state = StateOpen
	b.retryAt = b.now().Add(b.cfg.RetryTimeout)
	b.stats.Opened++

	b.log.Warn("Circuit breaker opened",
		"name", b.cfg.Name,
		"error", err.Error(),
		"retry_at", b.retryAt.Format(time.RFC3339),
	)
}

// State returns the current state of the breaker
func (b *Breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// Snapshot returns the breaker's counters
func (b *Breaker) Snapshot() Snapshot {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	s := b.stats
	s.State = b.state
	return s
}
