package overlaypost

import (
	"sync"
	"time"
)

// Limiter rate-limits attempts per IP address over a sliding window.
type Limiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration

	done chan struct{}
	stop sync.Once
}

// NewLimiter creates a Limiter that allows max attempts per window. Stale
// entries are swept once per window until Stop is called.
func NewLimiter(max int, window time.Duration) *Limiter {
	l := &Limiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		done:     make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Stop ends the background sweep. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stop.Do(func() { close(l.done) })
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.done:
			return
		}
	}
}

func (l *Limiter) sweep() {
	cutoff := time.Now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip := range l.attempts {
		l.recent(ip, cutoff)
	}
}

// recent drops hits older than cutoff and returns what is left. l.mu must be held.
func (l *Limiter) recent(ip string, cutoff time.Time) []time.Time {
	hits := l.attempts[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.attempts, ip)
		return nil
	}
	l.attempts[ip] = kept
	return kept
}

// Allow records an attempt for ip if it is still under the limit. The check
// and the record happen under one lock, so concurrent callers cannot both
// take the last slot.
func (l *Limiter) Allow(ip string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.recent(ip, now.Add(-l.window))) >= l.max {
		return false
	}
	l.attempts[ip] = append(l.attempts[ip], now)
	return true
}

// Check reports whether ip is under the limit without recording anything.
// Pair it with Record for flows that only count failures.
func (l *Limiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(ip, time.Now().Add(-l.window))) < l.max
}

// Record registers an attempt for the given IP.
func (l *Limiter) Record(ip string) {
	l.mu.Lock()
	l.attempts[ip] = append(l.attempts[ip], time.Now())
	l.mu.Unlock()
}
