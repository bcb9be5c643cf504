package source

import (
	"context"
	"sort"
	"sync"

	"golang-news-radar/internal/entity"
	"golang-news-radar/pkg/logger"
)

// FailoverChain tries adapters in priority order and serves the first batch
// that comes back non-empty. A fully exhausted chain yields an empty batch,
// never an error.
type FailoverChain struct {
	mu         sync.Mutex
	adapters   []Adapter
	logger     *logger.Logger
	lastSource string
}

// NewFailoverChain builds a chain over the given adapters, ordered by
// ascending priority.
func NewFailoverChain(adapters []Adapter, log *logger.Logger) *FailoverChain {
	ordered := make([]Adapter, len(adapters))
	copy(ordered, adapters)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return &FailoverChain{
		adapters: ordered,
		logger:   log,
	}
}

// GetBatch fetches the next batch of news, falling through unavailable
// sources.
func (c *FailoverChain) GetBatch(ctx context.Context, limit int) []entity.NewsItem {
	for _, adapter := range c.adapters {
		items, err := adapter.FetchLatest(ctx, limit)
		if err != nil {
			c.logger.Warn("Source unavailable, trying next",
				logger.StringField("source", adapter.Name()),
				logger.ErrorField(err),
			)
			continue
		}
		if len(items) == 0 {
			c.logger.Warn("Source returned no items, trying next", logger.StringField("source", adapter.Name()))
			continue
		}

		c.mu.Lock()
		c.lastSource = adapter.Name()
		c.mu.Unlock()

		c.logger.Info("Fetched news batch",
			logger.StringField("source", adapter.Name()),
			logger.IntField("count", len(items)),
		)
		return items
	}

	c.logger.Warn("All sources unavailable, returning empty batch")
	return nil
}

// LastSource returns the name of the source that served the most recent
// batch.
func (c *FailoverChain) LastSource() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSource
}

// Status reports the chain's per-source state, quota included for metered
// adapters.
func (c *FailoverChain) Status() []entity.SourceState {
	states := make([]entity.SourceState, 0, len(c.adapters))
	for _, adapter := range c.adapters {
		state := entity.SourceState{
			Name:     adapter.Name(),
			Priority: adapter.Priority(),
		}
		if metered, ok := adapter.(*HeadlineAPIAdapter); ok {
			state.Metered = true
			state.DailyCount = metered.Quota().Used()
			state.DailyLimit = metered.Quota().Limit()
			state.QuotaRemaining = metered.Quota().Remaining()
		}
		states = append(states, state)
	}
	return states
}
