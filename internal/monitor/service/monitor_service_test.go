package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/internal/monitor/dto"
	"golang-news-radar/internal/monitor/pipeline"
	"golang-news-radar/internal/monitor/scorer"
	"golang-news-radar/internal/monitor/source"
	"golang-news-radar/internal/monitor/store"
	"golang-news-radar/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	items []entity.NewsItem
}

func (a *stubAdapter) Name() string  { return "测试源" }
func (a *stubAdapter) Priority() int { return 1 }

func (a *stubAdapter) FetchLatest(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	return a.items, nil
}

// stubAI blocks on release when set, ignoring its context like a hung
// upstream would.
type stubAI struct {
	stage1    *dto.Stage1Result
	stage1Err error
	release   chan struct{}
	calls     int
}

func (s *stubAI) ClassifyNews(ctx context.Context, item entity.NewsItem, score entity.ScoreResult) (*dto.Stage1Result, error) {
	s.calls++
	if s.release != nil {
		<-s.release
		return nil, context.Canceled
	}
	if s.stage1Err != nil {
		return nil, s.stage1Err
	}
	return s.stage1, nil
}

func (s *stubAI) RefineRecommendations(ctx context.Context, item entity.NewsItem, stage1 *dto.Stage1Result) (*dto.Stage2Result, error) {
	return nil, errors.New("not expected in these scenarios")
}

func (s *stubAI) Ping(ctx context.Context) error { return nil }

type stubPool struct{}

func (stubPool) LookupByKeyword(text string) []entity.StockRef { return nil }

type monitorHarness struct {
	monitor MonitorService
	ledger  *Ledger
	store   *store.ResultStore
	clock   *fakeClock
	ai      *stubAI
}

func newMonitorHarness(t *testing.T, dataDir string, threshold float64, ai *stubAI, items []entity.NewsItem) *monitorHarness {
	t.Helper()

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	cfg := &config.Config{
		Monitor: config.Monitor{
			ScanInterval:            time.Minute,
			FetchLimit:              10,
			ImportanceThreshold:     threshold,
			HighImportanceThreshold: 0.97,
			DataDir:                 dataDir,
			DedupRetention:          2 * time.Hour,
			DedupPurgeInterval:      time.Minute,
			EnrichTimeoutMargin:     5 * time.Millisecond,
		},
		Scoring: config.Scoring{
			SourceWeights:       map[string]float64{"测试源": 0.95},
			DefaultSourceWeight: 0.80,
			PolicyKeywords:      []string{"政策"},
			ContinuityKeywords:  []string{"持续"},
			HotSectorKeywords:   []string{"新能源"},
		},
		Pipeline: config.Pipeline{
			Stage1Timeout:     30 * time.Millisecond,
			Stage2Timeout:     10 * time.Millisecond,
			Stage2MaxAttempts: 1,
			Stage2SettleDelay: time.Millisecond,
		},
		AI: config.AI{Provider: "deepseek"},
	}

	clk := &fakeClock{now: time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC)}
	chain := source.NewFailoverChain([]source.Adapter{&stubAdapter{items: items}}, log)
	ledger := NewLedger(cfg.Monitor.DedupRetention, clk)
	sc := scorer.New(cfg.Scoring, clk)
	pl := pipeline.New(cfg.Pipeline, cfg.Scoring, ai, stubPool{}, clk, log)
	st := store.NewResultStore(dataDir, log)

	return &monitorHarness{
		monitor: NewMonitorService(cfg, chain, ledger, sc, pl, ai, st, nil, clk, log),
		ledger:  ledger,
		store:   st,
		clock:   clk,
		ai:      ai,
	}
}

func TestRunTickAbandonsEnrichmentAtBudget(t *testing.T) {
	item := entity.NewsItem{Title: "重大政策持续加码推动产业升级", Source: "测试源"}
	ai := &stubAI{release: make(chan struct{})}
	t.Cleanup(func() { close(ai.release) })

	h := newMonitorHarness(t, t.TempDir(), 0.5, ai, []entity.NewsItem{item})

	start := time.Now()
	h.monitor.RunTick(context.Background())
	elapsed := time.Since(start)

	// The tick must not hang on the stuck call; its goroutine is abandoned
	// at the wall-clock budget.
	assert.Less(t, elapsed, 2*time.Second)

	records, err := h.store.ListByDay("2025-08-25")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.StatusFailed, records[0].Enrichment.Status)
	assert.False(t, h.ledger.IsNew(item.ID()))
}

func TestRunTickMarksSeenWhenSaveFails(t *testing.T) {
	// A regular file where the data dir should be makes every Save fail.
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	item := entity.NewsItem{Title: "重大政策持续加码推动产业升级", Source: "测试源"}
	ai := &stubAI{stage1Err: errors.New("upstream down")}
	h := newMonitorHarness(t, blocked, 0.5, ai, []entity.NewsItem{item})

	h.monitor.RunTick(context.Background())

	assert.False(t, h.ledger.IsNew(item.ID()))
	assert.Equal(t, 1, h.ai.calls)

	// The item is not reprocessed on the next tick this session.
	h.monitor.RunTick(context.Background())
	assert.Equal(t, 1, h.ai.calls)
}

func TestRunTickSkipsBelowThresholdButMarksSeen(t *testing.T) {
	item := entity.NewsItem{Title: "普通简讯", Source: "测试源"}
	ai := &stubAI{}
	dir := t.TempDir()
	h := newMonitorHarness(t, dir, 0.99, ai, []entity.NewsItem{item})

	h.monitor.RunTick(context.Background())

	assert.Zero(t, h.ai.calls)
	assert.False(t, h.ledger.IsNew(item.ID()))

	records, err := h.store.ListByDay("2025-08-25")
	require.NoError(t, err)
	assert.Empty(t, records)
}
