package enrich

import (
	"log"
	"sync"
	"time"
)

// CircuitBreaker halts enrichment calls when the model API starts refusing
// them, so a quota outage degrades to empty patches instead of hammering the
// endpoint.
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	consecutiveFailures int
	isOpen              bool
	lastFailureTime     time.Time

	mutex sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.consecutiveFailures = 0
}

// RecordFailure records a failed request. Consecutive quota or server errors
// open the breaker immediately.
func (cb *CircuitBreaker) RecordFailure(statusCode int) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.consecutiveFailures++
	cb.lastFailureTime = time.Now()

	if cb.consecutiveFailures >= cb.failureThreshold && (statusCode == 429 || statusCode >= 500 || statusCode == 0) {
		if !cb.isOpen {
			log.Printf("Enrich: circuit breaker open after %d consecutive failures (last status %d), retry after %v",
				cb.consecutiveFailures, statusCode, cb.resetTimeout)
		}
		cb.isOpen = true
	}
}

// CanProceed checks if requests are allowed
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.isOpen {
		return true
	}

	// Half-open after the reset timeout passes
	if time.Since(cb.lastFailureTime) > cb.resetTimeout {
		log.Printf("Enrich: circuit breaker half-open after %v", cb.resetTimeout)
		cb.isOpen = false
		cb.consecutiveFailures = 0
		return true
	}

	return false
}
