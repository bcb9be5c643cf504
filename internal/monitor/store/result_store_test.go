package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ResultStore, string) {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	dir := t.TempDir()
	return NewResultStore(dir, log), dir
}

func testRecord(id string, at time.Time, composite float64, important bool) entity.AnalysisRecord {
	return entity.AnalysisRecord{
		ID:           id,
		AnalysisTime: at,
		News:         entity.NewsItem{Title: "标题 " + id, Source: "央视新闻"},
		Score:        entity.ScoreResult{Composite: composite},
		Enrichment: entity.EnrichmentResult{
			Status: entity.StatusRefined,
			Recommendations: []entity.Recommendation{
				{Rank: 1, Symbol: "000001", Name: "平安银行", Confidence: 0.8},
			},
		},
		Important: important,
	}
}

func TestSaveWritesRecordFile(t *testing.T) {
	store, dir := newTestStore(t)
	at := time.Date(2025, 8, 25, 9, 30, 15, 0, time.UTC)

	path, err := store.Save(testRecord("abc123", at, 0.6, false))
	require.NoError(t, err)

	want := filepath.Join(dir, "daily_analysis", "2025-08-25", "093015_abc123.json")
	assert.Equal(t, want, path)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	// No leftover temp file from the atomic write.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveImportantRecordIsCopied(t *testing.T) {
	store, dir := newTestStore(t)
	at := time.Date(2025, 8, 25, 9, 30, 15, 0, time.UTC)

	_, err := store.Save(testRecord("imp001", at, 0.85, true))
	require.NoError(t, err)

	copyPath := filepath.Join(dir, "important_news", "2025-08-25_093015_imp001.json")
	_, err = os.Stat(copyPath)
	assert.NoError(t, err)
}

func TestSummaryRunningMean(t *testing.T) {
	store, _ := newTestStore(t)
	at := time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC)

	_, err := store.Save(testRecord("a", at, 0.6, false))
	require.NoError(t, err)
	_, err = store.Save(testRecord("b", at.Add(time.Minute), 0.9, true))
	require.NoError(t, err)

	summary, err := store.ReadDailySummary("2025-08-25")
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 2, summary.TotalNews)
	assert.Equal(t, 2, summary.Analyzed)
	assert.Equal(t, 1, summary.ImportantNews)
	assert.Equal(t, 2, summary.RecommendationCount)
	assert.InDelta(t, 0.75, summary.AverageStrength, 1e-9)
}

func TestListByDay(t *testing.T) {
	store, _ := newTestStore(t)
	at := time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC)

	_, err := store.Save(testRecord("later", at.Add(time.Hour), 0.6, false))
	require.NoError(t, err)
	_, err = store.Save(testRecord("early", at, 0.6, false))
	require.NoError(t, err)

	records, err := store.ListByDay("2025-08-25")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Oldest first; summary.json is not listed as a record.
	assert.Equal(t, "early", records[0].ID)
	assert.Equal(t, "later", records[1].ID)
}

func TestListByDayUnknownDateIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	records, err := store.ListByDay("1999-01-01")
	assert.NoError(t, err)
	assert.Empty(t, records)

	summary, err := store.ReadDailySummary("1999-01-01")
	assert.NoError(t, err)
	assert.Nil(t, summary)
}
