// Package ratelimit throttles repeated attempts per key, such as password
// logins for one email.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Common errors
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Defaults applied when a limiter is built with a non-positive rate or window.
const (
	DefaultRate   = 5
	DefaultWindow = 15 * time.Minute
)

func normalize(rate int, window time.Duration) (int, time.Duration) {
	if rate <= 0 {
		rate = DefaultRate
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return rate, window
}

// Limiter defines the interface for rate limiters.
type Limiter interface {
	// Allow records an attempt for key and reports whether it is within
	// the limit.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the attempts recorded for key.
	Reset(ctx context.Context, key string) error

	// Close releases any resources held by the limiter.
	Close() error
}

// entry represents a rate limit entry for a key.
type entry struct {
	count    int
	windowAt time.Time
}

// MemoryLimiter is an in-memory fixed window rate limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    int
	window  time.Duration
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMemoryLimiter creates a limiter allowing rate attempts per window.
// Non-positive values take DefaultRate and DefaultWindow. A background
// goroutine evicts stale entries until Close is called.
func NewMemoryLimiter(rate int, window time.Duration) *MemoryLimiter {
	rate, window = normalize(rate, window)
	ml := &MemoryLimiter{
		entries: make(map[string]*entry),
		rate:    rate,
		window:  window,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	ml.wg.Add(1)
	go ml.cleanup()

	return ml
}

// Allow checks if an attempt is allowed for the given key.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, exists := m.entries[key]

	if !exists || !now.Before(e.windowAt) {
		m.entries[key] = &entry{count: 1, windowAt: now.Add(m.window)}
		return 1 <= m.rate, nil
	}

	if e.count >= m.rate {
		return false, nil
	}

	e.count++
	return true, nil
}

// Reset resets the rate limit for the given key.
func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Remaining returns the number of attempts left for key in the current window.
func (m *MemoryLimiter) Remaining(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.entries[key]
	if !exists || !m.now().Before(e.windowAt) {
		return m.rate
	}
	return max(m.rate-e.count, 0)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (m *MemoryLimiter) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()
	return nil
}

func (m *MemoryLimiter) cleanup() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *MemoryLimiter) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.windowAt) {
			delete(m.entries, key)
		}
	}
}

var _ Limiter = (*MemoryLimiter)(nil)
