package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/pkg/logger"
	"golang-news-radar/pkg/utils"
)

// HeadlineAPIAdapter fetches top headlines from a metered JSON API. Every
// answered network call consumes one unit of the daily quota, whatever the
// status; transport failures do not.
type HeadlineAPIAdapter struct {
	cfg    config.Source
	client *http.Client
	quota  *QuotaTracker
	logger *logger.Logger
}

// NewHeadlineAPIAdapter creates a headline API adapter backed by the given
// quota tracker.
func NewHeadlineAPIAdapter(cfg config.Source, quota *QuotaTracker, log *logger.Logger) *HeadlineAPIAdapter {
	return &HeadlineAPIAdapter{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		quota:  quota,
		logger: log,
	}
}

func (a *HeadlineAPIAdapter) Name() string {
	return a.cfg.Name
}

func (a *HeadlineAPIAdapter) Priority() int {
	return a.cfg.Priority
}

// Quota exposes the adapter's tracker for status reporting.
func (a *HeadlineAPIAdapter) Quota() *QuotaTracker {
	return a.quota
}

// FetchLatest returns up to limit headlines. An exhausted quota is reported
// as unavailable without touching the network.
func (a *HeadlineAPIAdapter) FetchLatest(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	if a.quota.Remaining() == 0 {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: ReasonQuota}
	}

	reqURL, err := a.buildURL(limit)
	if err != nil {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "bad_url", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "request", Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "network", Err: err}
	}
	defer resp.Body.Close()

	// The provider has answered, so the call counts against today's budget
	// no matter what the status or body say.
	a.quota.TryConsume()

	if resp.StatusCode != http.StatusOK {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: fmt.Sprintf("http_%d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "read", Err: err}
	}

	items, err := a.parseResponse(body, limit)
	if err != nil {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "parse", Err: err}
	}
	return items, nil
}

func (a *HeadlineAPIAdapter) buildURL(limit int) (string, error) {
	u, err := url.Parse(a.cfg.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if a.cfg.APIKey != "" {
		q.Set("key", a.cfg.APIKey)
	}
	q.Set("page_size", fmt.Sprintf("%d", limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseResponse walks the candidate payload paths different headline
// providers use and standardizes whatever list it finds first.
func (a *HeadlineAPIAdapter) parseResponse(body []byte, limit int) ([]entity.NewsItem, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode headline response: %w", err)
	}

	list := extractItemList(payload)
	if list == nil {
		return nil, fmt.Errorf("no item list found in headline response")
	}

	items := make([]entity.NewsItem, 0, limit)
	for _, raw := range list {
		if len(items) >= limit {
			break
		}
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		item := a.standardize(obj)
		if item.Title == "" {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("headline response contained no usable items")
	}
	return items, nil
}

func extractItemList(payload map[string]interface{}) []interface{} {
	paths := [][]string{
		{"result", "data"},
		{"data", "result"},
		{"data"},
		{"result"},
	}
	for _, path := range paths {
		node := interface{}(payload)
		ok := true
		for _, key := range path {
			obj, isMap := node.(map[string]interface{})
			if !isMap {
				ok = false
				break
			}
			node, ok = obj[key]
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		if list, isList := node.([]interface{}); isList {
			return list
		}
	}
	return nil
}

func (a *HeadlineAPIAdapter) standardize(obj map[string]interface{}) entity.NewsItem {
	title := utils.CleanToValidUTF8(stringField(obj, "title"))
	summary := utils.CleanToValidUTF8(stringField(obj, "digest", "summary", "content"))
	if summary == "" {
		summary = utils.TruncateRunes(title, 50)
	}

	item := entity.NewsItem{
		Title:    title,
		Summary:  summary,
		Source:   a.cfg.Name,
		URL:      stringField(obj, "url", "link"),
		Category: stringField(obj, "category", "type"),
	}

	if raw := stringField(obj, "date", "publish_time", "ctime"); raw != "" {
		if ts := parsePublishTime(raw); ts != nil {
			item.PublishedAt = ts
		}
	}
	return item
}

func stringField(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func parsePublishTime(raw string) *time.Time {
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.RFC3339,
		"2006-01-02",
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &ts
		}
	}
	return nil
}
