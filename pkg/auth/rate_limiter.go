package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter implements sliding window rate limiting in process
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	now        func() time.Time
}

type window struct {
	requests []time.Time
	mu       sync.Mutex
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow checks if a request is allowed
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	w, exists := l.windows[key]
	if !exists {
		w = &window{}
		l.windows[key] = w
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.windowSize)

	valid := w.requests[:0]
	for _, at := range w.requests {
		if at.After(windowStart) {
			valid = append(valid, at)
		}
	}
	w.requests = valid

	if len(w.requests) >= l.limit {
		return false, nil
	}
	w.requests = append(w.requests, now)
	return true, nil
}

// Reset resets the rate limit for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}

// PrefixedLimiter namespaces keys, e.g. "ip:" or "user:"
type PrefixedLimiter struct {
	limiter RateLimiter
	prefix  string
}

// NewIPRateLimiter limits requests per client IP per minute
func NewIPRateLimiter(requestsPerMinute int) *PrefixedLimiter {
	return &PrefixedLimiter{limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute), prefix: "ip:"}
}

// NewUserRateLimiter limits requests per user per minute
func NewUserRateLimiter(requestsPerMinute int) *PrefixedLimiter {
	return &PrefixedLimiter{limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute), prefix: "user:"}
}

// NewPrefixedLimiter wraps any limiter, such as the DynamoDB one
func NewPrefixedLimiter(limiter RateLimiter, prefix string) *PrefixedLimiter {
	return &PrefixedLimiter{limiter: limiter, prefix: prefix}
}

func (l *PrefixedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.limiter.Allow(ctx, l.prefix+key)
}

func (l *PrefixedLimiter) Reset(ctx context.Context, key string) error {
	return l.limiter.Reset(ctx, l.prefix+key)
}
