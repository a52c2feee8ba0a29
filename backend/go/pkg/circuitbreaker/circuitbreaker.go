package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where calls are allowed.
	Closed State = iota
	// Open means the circuit has tripped and calls are rejected.
	Open
	// HalfOpen lets trial calls through to test whether the backend recovered.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Settings configure a Breaker.
type Settings struct {
	FailureThreshold uint32        // consecutive failures that trip the circuit
	SuccessThreshold uint32        // consecutive half-open successes that close it
	Timeout          time.Duration // time spent open before trying half-open
}

// Breaker is a consecutive-failure circuit breaker safe for concurrent use.
type Breaker struct {
	settings Settings
	now      func() time.Time

	mutex                sync.Mutex
	state                State
	consecutiveFailures  uint32
	consecutiveSuccesses uint32
	openedAt             time.Time
}

// New creates a Breaker. Zero thresholds default to 1.
func New(settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 1
	}
	if settings.SuccessThreshold == 0 {
		settings.SuccessThreshold = 1
	}
	return &Breaker{settings: settings, now: time.Now, state: Closed}
}

// State returns the current state, moving Open to HalfOpen once the timeout passed.
func (cb *Breaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.refresh()
	return cb.state
}

// Execute runs call unless the circuit is open. Errors for which ignore
// returns true are passed through without counting as failures.
func (cb *Breaker) Execute(call func() error, ignore func(error) bool) error {
	cb.mutex.Lock()
	cb.refresh()
	if cb.state == Open {
		cb.mutex.Unlock()
		return ErrCircuitOpen
	}
	cb.mutex.Unlock()

	err := call()

	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	if err != nil && (ignore == nil || !ignore(err)) {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
	return err
}

func (cb *Breaker) refresh() {
	if cb.state == Open && cb.now().Sub(cb.openedAt) > cb.settings.Timeout {
		cb.state = HalfOpen
		cb.consecutiveSuccesses = 0
	}
}

func (cb *Breaker) onSuccess() {
	switch cb.state {
	case HalfOpen:
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.settings.SuccessThreshold {
			cb.state = Closed
			cb.consecutiveFailures = 0
			cb.consecutiveSuccesses = 0
		}
	case Closed:
		cb.consecutiveFailures = 0
	}
}

func (cb *Breaker) onFailure() {
	switch cb.state {
	case HalfOpen:
		cb.trip()
	case Closed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.settings.FailureThreshold {
			cb.trip()
		}
	}
}

func (cb *Breaker) trip() {
	cb.state = Open
	cb.openedAt = cb.now()
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}
