// Package ratelimit guards outbound calls to the public parcel-record API so
// the service stays a polite consumer.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks and enforces request rate limits with sliding windows
type Limiter struct {
	requestsPerMinute int
	requestsPerDay    int
	enabled           bool

	minuteWindow []time.Time
	dayWindow    []time.Time
	mu           sync.Mutex
}

// NewLimiter creates a limiter with the given per-minute and per-day caps.
// A cap of zero disables that window.
func NewLimiter(requestsPerMinute, requestsPerDay int, enabled bool) *Limiter {
	return &Limiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerDay:    requestsPerDay,
		enabled:           enabled,
	}
}

// Allow reports whether another request may be issued now, recording it if so
func (l *Limiter) Allow() bool {
	if !l.enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.cleanup(now)

	if l.requestsPerMinute > 0 && len(l.minuteWindow) >= l.requestsPerMinute {
		return false
	}
	if l.requestsPerDay > 0 && len(l.dayWindow) >= l.requestsPerDay {
		return false
	}

	l.minuteWindow = append(l.minuteWindow, now)
	l.dayWindow = append(l.dayWindow, now)
	return true
}

func (l *Limiter) cleanup(now time.Time) {
	l.minuteWindow = keepAfter(l.minuteWindow, now.Add(-time.Minute))
	l.dayWindow = keepAfter(l.dayWindow, now.Add(-24*time.Hour))
}

func keepAfter(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Stats contains current limiter usage
type Stats struct {
	Enabled            bool `json:"enabled"`
	RequestsLastMinute int  `json:"requests_last_minute"`
	RequestsLastDay    int  `json:"requests_last_day"`
	LimitPerMinute     int  `json:"limit_per_minute"`
	LimitPerDay        int  `json:"limit_per_day"`
}

// GetStats returns a snapshot of current usage
func (l *Limiter) GetStats() Stats {
	if !l.enabled {
		return Stats{Enabled: false}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanup(time.Now())
	return Stats{
		Enabled:            true,
		RequestsLastMinute: len(l.minuteWindow),
		RequestsLastDay:    len(l.dayWindow),
		LimitPerMinute:     l.requestsPerMinute,
		LimitPerDay:        l.requestsPerDay,
	}
}

// Reset clears all tracked requests (useful for testing)
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minuteWindow = nil
	l.dayWindow = nil
}
