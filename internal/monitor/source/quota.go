package source

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang-news-radar/pkg/logger"
)

type quotaState struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// QuotaTracker enforces a per-day call budget for a metered source. State is
// persisted as a small JSON file so the budget survives restarts; unreadable
// state fails open to a fresh day.
type QuotaTracker struct {
	mu     sync.Mutex
	path   string
	limit  int
	state  quotaState
	now    func() time.Time
	logger *logger.Logger
}

// NewQuotaTracker loads persisted state from path. now is injectable so day
// rollover can be tested.
func NewQuotaTracker(path string, limit int, now func() time.Time, log *logger.Logger) *QuotaTracker {
	if now == nil {
		now = time.Now
	}
	t := &QuotaTracker{
		path:   path,
		limit:  limit,
		now:    now,
		logger: log,
	}
	t.state = t.load()
	return t
}

// TryConsume records one call attempt against today's budget. It returns
// false, without counting, when the budget is already exhausted.
func (t *QuotaTracker) TryConsume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNewDay()
	if t.state.Count >= t.limit {
		return false
	}
	t.state.Count++
	t.persist()
	return true
}

// Remaining returns the number of calls left today.
func (t *QuotaTracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNewDay()
	remaining := t.limit - t.state.Count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Used returns the number of calls consumed today.
func (t *QuotaTracker) Used() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNewDay()
	return t.state.Count
}

// Limit returns the daily budget.
func (t *QuotaTracker) Limit() int {
	return t.limit
}

func (t *QuotaTracker) resetIfNewDay() {
	today := t.now().Format("2006-01-02")
	if t.state.Date != today {
		t.state = quotaState{Date: today, Count: 0}
		t.persist()
	}
}

func (t *QuotaTracker) load() quotaState {
	fresh := quotaState{Date: t.now().Format("2006-01-02"), Count: 0}

	data, err := os.ReadFile(t.path)
	if err != nil {
		return fresh
	}
	var st quotaState
	if err := json.Unmarshal(data, &st); err != nil || st.Date == "" || st.Count < 0 {
		t.logger.Warn("Quota state file is corrupt, starting fresh", logger.StringField("path", t.path))
		return fresh
	}
	return st
}

// persist writes atomically so a crash never leaves a truncated state file.
func (t *QuotaTracker) persist() {
	data, err := json.Marshal(t.state)
	if err != nil {
		t.logger.Error("Failed to marshal quota state", logger.ErrorField(err))
		return
	}
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.logger.Error("Failed to create quota state dir", logger.ErrorField(err))
			return
		}
	}
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		t.logger.Error("Failed to write quota state", logger.StringField("path", tmp), logger.ErrorField(err))
		return
	}
	if err := os.Rename(tmp, t.path); err != nil {
		t.logger.Error("Failed to replace quota state", logger.StringField("path", t.path), logger.ErrorField(err))
	}
}
