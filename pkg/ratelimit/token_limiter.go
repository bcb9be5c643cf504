package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a per-minute token budget for AI API calls.
type TokenLimiter struct {
	mu          sync.Mutex
	maxPerMin   int
	used        int
	windowStart time.Time
}

// NewTokenLimiter creates a limiter allowing maxPerMin tokens per minute.
func NewTokenLimiter(maxPerMin int) *TokenLimiter {
	return &TokenLimiter{
		maxPerMin:   maxPerMin,
		windowStart: time.Now(),
	}
}

// Wait blocks until n tokens can be consumed or the context is done.
func (l *TokenLimiter) Wait(ctx context.Context, n int) error {
	if n > l.maxPerMin {
		// Oversized requests are allowed through a fresh window rather than
		// blocking forever.
		n = l.maxPerMin
	}

	for {
		l.mu.Lock()
		l.rollWindow()
		if l.used+n <= l.maxPerMin {
			l.used += n
			l.mu.Unlock()
			return nil
		}
		wait := time.Minute - time.Since(l.windowStart)
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// GetRemaining returns the number of tokens left in the current window.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollWindow()
	return l.maxPerMin - l.used
}

func (l *TokenLimiter) rollWindow() {
	if time.Since(l.windowStart) >= time.Minute {
		l.windowStart = time.Now()
		l.used = 0
	}
}
