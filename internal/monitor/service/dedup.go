package service

import (
	"sync"
	"time"

	"golang-news-radar/pkg/clock"
)

// Ledger remembers which news IDs have already been processed. Purging is
// coarse: once the oldest entry exceeds the retention window the whole set is
// cleared, trading a few re-analyses for a bounded memory footprint.
type Ledger struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	oldestAt  time.Time
	retention time.Duration
	clock     clock.Clock
}

// NewLedger creates a ledger with the given retention window.
func NewLedger(retention time.Duration, clk clock.Clock) *Ledger {
	return &Ledger{
		seen:      make(map[string]struct{}),
		retention: retention,
		clock:     clk,
	}
}

// IsNew reports whether id has not been seen yet.
func (l *Ledger) IsNew(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return !ok
}

// MarkSeen records id as processed.
func (l *Ledger) MarkSeen(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.seen) == 0 {
		l.oldestAt = l.clock.Now()
	}
	l.seen[id] = struct{}{}
}

// Purge clears the set when the oldest entry is past retention. It returns
// the number of entries dropped.
func (l *Ledger) Purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.seen) == 0 {
		return 0
	}
	if l.clock.Now().Sub(l.oldestAt) < l.retention {
		return 0
	}
	dropped := len(l.seen)
	l.seen = make(map[string]struct{})
	return dropped
}

// Size returns the number of remembered IDs.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
