package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"golang-news-radar/internal/monitor/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadlineAdapter(t *testing.T, url string, limit int) *HeadlineAPIAdapter {
	t.Helper()
	log := testLogger(t)
	quota := NewQuotaTracker(filepath.Join(t.TempDir(), "quota.json"), limit, nil, log)
	cfg := config.Source{Name: "头条新闻", Type: "headline_api", URL: url, Priority: 1, DailyLimit: limit}
	return NewHeadlineAPIAdapter(cfg, quota, log)
}

func TestHeadlineAPIFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"data":[
			{"title":"发改委发布新政策","digest":"摘要内容","url":"https://example.com/1","date":"2025-08-25 09:00:00","category":"头条"},
			{"title":"","digest":"无标题被丢弃"},
			{"title":"第二条新闻"}
		]}}`))
	}))
	defer server.Close()

	adapter := newHeadlineAdapter(t, server.URL, 10)

	items, err := adapter.FetchLatest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "发改委发布新政策", items[0].Title)
	assert.Equal(t, "摘要内容", items[0].Summary)
	assert.Equal(t, "头条新闻", items[0].Source)
	require.NotNil(t, items[0].PublishedAt)

	// Missing summary falls back to the title, missing date stays nil.
	assert.Equal(t, "第二条新闻", items[1].Summary)
	assert.Nil(t, items[1].PublishedAt)

	assert.Equal(t, 1, adapter.Quota().Used())
}

func TestHeadlineAPIAlternatePayloadPaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"title":"直挂data字段的新闻"}]}`))
	}))
	defer server.Close()

	adapter := newHeadlineAdapter(t, server.URL, 10)

	items, err := adapter.FetchLatest(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "直挂data字段的新闻", items[0].Title)
}

func TestHeadlineAPIQuotaExhaustedSkipsNetwork(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"data":[{"title":"新闻"}]}`))
	}))
	defer server.Close()

	adapter := newHeadlineAdapter(t, server.URL, 1)

	_, err := adapter.FetchLatest(context.Background(), 5)
	require.NoError(t, err)

	_, err = adapter.FetchLatest(context.Background(), 5)
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, ReasonQuota, unavailable.Reason)
	assert.Equal(t, 1, hits)
}

func TestHeadlineAPIFailedCallStillConsumesQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := newHeadlineAdapter(t, server.URL, 5)

	_, err := adapter.FetchLatest(context.Background(), 5)
	var unavailable *UnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "http_500", unavailable.Reason)
	assert.Equal(t, 1, adapter.Quota().Used())
}

func TestHeadlineAPITransportFailureSparesQuota(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	adapter := newHeadlineAdapter(t, server.URL, 5)

	_, err := adapter.FetchLatest(context.Background(), 5)
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "network", unavailable.Reason)
	assert.Zero(t, adapter.Quota().Used())
}
