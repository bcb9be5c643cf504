package source

import (
	"context"
	"sort"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/pkg/logger"
	"golang-news-radar/pkg/utils"

	"github.com/mmcdole/gofeed"
)

// RSSAdapter reads a syndication feed. It is the lowest-priority fallback in
// the chain.
type RSSAdapter struct {
	cfg    config.Source
	parser *gofeed.Parser
	logger *logger.Logger
}

// NewRSSAdapter creates an RSS adapter for the feed at cfg.URL.
func NewRSSAdapter(cfg config.Source, log *logger.Logger) *RSSAdapter {
	return &RSSAdapter{
		cfg:    cfg,
		parser: gofeed.NewParser(),
		logger: log,
	}
}

func (a *RSSAdapter) Name() string {
	return a.cfg.Name
}

func (a *RSSAdapter) Priority() int {
	return a.cfg.Priority
}

// FetchLatest parses the feed and returns the newest limit entries.
func (a *RSSAdapter) FetchLatest(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	feed, err := a.parser.ParseURLWithContext(a.cfg.URL, ctx)
	if err != nil {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "network", Err: err}
	}
	if len(feed.Items) == 0 {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "empty"}
	}

	sort.SliceStable(feed.Items, func(i, j int) bool {
		left, right := feed.Items[i].PublishedParsed, feed.Items[j].PublishedParsed
		if left == nil || right == nil {
			return right == nil && left != nil
		}
		return left.After(*right)
	})

	items := make([]entity.NewsItem, 0, limit)
	for _, fi := range feed.Items {
		if len(items) >= limit {
			break
		}
		title := utils.CleanToValidUTF8(fi.Title)
		if title == "" {
			continue
		}
		summary := utils.CleanToValidUTF8(fi.Description)
		if summary == "" {
			summary = utils.TruncateRunes(title, 50)
		}
		items = append(items, entity.NewsItem{
			Title:       title,
			Summary:     summary,
			Source:      a.cfg.Name,
			URL:         fi.Link,
			PublishedAt: fi.PublishedParsed,
			Category:    firstCategory(fi),
		})
	}
	return items, nil
}

func firstCategory(fi *gofeed.Item) string {
	if len(fi.Categories) > 0 {
		return fi.Categories[0]
	}
	return ""
}
