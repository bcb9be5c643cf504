package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/internal/monitor/dto"
	"golang-news-radar/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	return ctx.Err()
}

type fakeAIRepo struct {
	stage1       *dto.Stage1Result
	stage1Err    error
	stage2       *dto.Stage2Result
	stage2Err    error
	stage2Calls  int
	stage2OkFrom int // 1-based attempt from which stage 2 succeeds; 0 = per stage2Err
}

func (r *fakeAIRepo) ClassifyNews(ctx context.Context, item entity.NewsItem, score entity.ScoreResult) (*dto.Stage1Result, error) {
	if r.stage1Err != nil {
		return nil, r.stage1Err
	}
	return r.stage1, nil
}

func (r *fakeAIRepo) RefineRecommendations(ctx context.Context, item entity.NewsItem, stage1 *dto.Stage1Result) (*dto.Stage2Result, error) {
	r.stage2Calls++
	if r.stage2OkFrom > 0 && r.stage2Calls >= r.stage2OkFrom {
		return r.stage2, nil
	}
	if r.stage2Err != nil {
		return nil, r.stage2Err
	}
	return r.stage2, nil
}

func (r *fakeAIRepo) Ping(ctx context.Context) error { return nil }

type fakeStockPool struct {
	refs []entity.StockRef
}

func (p *fakeStockPool) LookupByKeyword(text string) []entity.StockRef { return p.refs }

func testPipelineConfig() config.Pipeline {
	return config.Pipeline{
		Stage1Timeout:     60 * time.Second,
		Stage2Timeout:     60 * time.Second,
		Stage2MaxAttempts: 3,
		Stage2SettleDelay: 3 * time.Second,
	}
}

func testScoring() config.Scoring {
	return config.Scoring{
		PolicyKeywords:    []string{"政策"},
		HotSectorKeywords: []string{"新能源"},
	}
}

func newTestPipeline(t *testing.T, ai *fakeAIRepo, pool *fakeStockPool, clk *fakeClock) *Pipeline {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	if pool == nil {
		pool = &fakeStockPool{}
	}
	return New(testPipelineConfig(), testScoring(), ai, pool, clk, log)
}

func stage1WithRecs() *dto.Stage1Result {
	return &dto.Stage1Result{
		NewsAnalysis: "重要政策",
		PolicyImpact: "利好",
		ThemeClassification: dto.ThemeClassification{
			ThemeType:     "政策导向",
			HardcoreLevel: "国家意志",
		},
		Recommendations: []dto.StockPick{
			{Rank: 1, StockCode: "000001", StockName: "平安银行", Reason: "受益", Confidence: 0.80},
			{Rank: 2, StockCode: "002594", StockName: "比亚迪", Reason: "新能源龙头", Confidence: 0.75},
		},
	}
}

func TestEnrichRefined(t *testing.T) {
	ai := &fakeAIRepo{
		stage1: stage1WithRecs(),
		stage2: &dto.Stage2Result{
			FinalRecommendations: []dto.StockPick{
				{Rank: 1, StockCode: "002594", StockName: "比亚迪", Reason: "更强催化", Confidence: 0.90},
			},
		},
	}
	clk := &fakeClock{now: time.Now()}
	p := newTestPipeline(t, ai, nil, clk)

	result := p.Enrich(context.Background(), entity.NewsItem{Title: "新闻"}, entity.ScoreResult{})

	assert.Equal(t, entity.StatusRefined, result.Status)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "002594", result.Recommendations[0].Symbol)
	assert.Len(t, result.Stage1Recommendations, 2)
	assert.Equal(t, "政策导向", result.ThemeType)

	// Only the settle delay was slept.
	require.Len(t, clk.sleeps, 1)
	assert.Equal(t, 3*time.Second, clk.sleeps[0])
}

func TestEnrichRoughOnlySkipsStage2(t *testing.T) {
	ai := &fakeAIRepo{stage1: &dto.Stage1Result{NewsAnalysis: "一般新闻"}}
	clk := &fakeClock{now: time.Now()}
	p := newTestPipeline(t, ai, nil, clk)

	result := p.Enrich(context.Background(), entity.NewsItem{Title: "新闻"}, entity.ScoreResult{})

	assert.Equal(t, entity.StatusRoughOnly, result.Status)
	assert.Empty(t, result.Recommendations)
	assert.Zero(t, ai.stage2Calls)
	assert.Empty(t, clk.sleeps)
}

func TestEnrichFallbackEnhancedAfterExhaustion(t *testing.T) {
	ai := &fakeAIRepo{
		stage1:    stage1WithRecs(),
		stage2Err: errors.New("upstream overloaded"),
	}
	clk := &fakeClock{now: time.Now()}
	p := newTestPipeline(t, ai, nil, clk)

	result := p.Enrich(context.Background(), entity.NewsItem{Title: "重磅政策出台"}, entity.ScoreResult{})

	assert.Equal(t, entity.StatusFallbackEnhanced, result.Status)
	assert.Equal(t, 3, ai.stage2Calls)
	require.Len(t, result.Recommendations, 2)

	// +0.10 policy-in-title for both, +0.05 hot-sector-in-reason for 比亚迪,
	// which ties the scores; the stable sort keeps the stage-1 order.
	assert.Equal(t, "000001", result.Recommendations[0].Symbol)
	assert.InDelta(t, 0.90, result.Recommendations[0].Confidence, 1e-9)
	assert.Equal(t, 1, result.Recommendations[0].Rank)
	assert.Equal(t, "002594", result.Recommendations[1].Symbol)
	assert.InDelta(t, 0.90, result.Recommendations[1].Confidence, 1e-9)
	assert.Equal(t, 2, result.Recommendations[1].Rank)

	// Settle delay plus exponential backoff between attempts.
	assert.Equal(t, []time.Duration{3 * time.Second, 2 * time.Second, 4 * time.Second}, clk.sleeps)

	// Original stage-1 list is preserved for audit, unchanged.
	require.Len(t, result.Stage1Recommendations, 2)
	assert.InDelta(t, 0.80, result.Stage1Recommendations[0].Confidence, 1e-9)
}

func TestEnrichFallbackEnhancedConfidenceCap(t *testing.T) {
	stage1 := stage1WithRecs()
	stage1.Recommendations[0].Confidence = 0.92
	ai := &fakeAIRepo{stage1: stage1, stage2Err: errors.New("down")}
	clk := &fakeClock{now: time.Now()}
	p := newTestPipeline(t, ai, nil, clk)

	result := p.Enrich(context.Background(), entity.NewsItem{Title: "重磅政策出台"}, entity.ScoreResult{})

	require.Equal(t, entity.StatusFallbackEnhanced, result.Status)
	for _, rec := range result.Recommendations {
		assert.LessOrEqual(t, rec.Confidence, 0.95)
	}
}

func TestEnrichEmptyStage2ListIsRetried(t *testing.T) {
	ai := &fakeAIRepo{
		stage1:       stage1WithRecs(),
		stage2:       &dto.Stage2Result{},
		stage2OkFrom: 0,
	}
	clk := &fakeClock{now: time.Now()}
	p := newTestPipeline(t, ai, nil, clk)

	result := p.Enrich(context.Background(), entity.NewsItem{Title: "新闻"}, entity.ScoreResult{})

	assert.Equal(t, entity.StatusFallbackEnhanced, result.Status)
	assert.Equal(t, 3, ai.stage2Calls)
}

func TestEnrichStage2RecoversOnRetry(t *testing.T) {
	ai := &fakeAIRepo{
		stage1:    stage1WithRecs(),
		stage2Err: errors.New("flaky"),
		stage2: &dto.Stage2Result{
			FinalRecommendations: []dto.StockPick{{Rank: 1, StockCode: "000001", StockName: "平安银行", Confidence: 0.9}},
		},
		stage2OkFrom: 2,
	}
	clk := &fakeClock{now: time.Now()}
	p := newTestPipeline(t, ai, nil, clk)

	result := p.Enrich(context.Background(), entity.NewsItem{Title: "新闻"}, entity.ScoreResult{})

	assert.Equal(t, entity.StatusRefined, result.Status)
	assert.Equal(t, 2, ai.stage2Calls)
}

func TestEnrichFallbackBasicFromStockPool(t *testing.T) {
	ai := &fakeAIRepo{stage1Err: errors.New("timeout")}
	pool := &fakeStockPool{refs: []entity.StockRef{
		{Symbol: "600036", Name: "招商银行", Reason: "银行板块"},
	}}
	clk := &fakeClock{now: time.Now()}
	p := newTestPipeline(t, ai, pool, clk)

	result := p.Enrich(context.Background(), entity.NewsItem{Title: "银行利好"}, entity.ScoreResult{})

	assert.Equal(t, entity.StatusFallbackBasic, result.Status)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, "600036", result.Recommendations[0].Symbol)
	assert.InDelta(t, 0.5, result.Recommendations[0].Confidence, 1e-9)
}

func TestEnrichFallbackBasicPlaceholderWhenNoMatch(t *testing.T) {
	ai := &fakeAIRepo{stage1Err: errors.New("timeout")}
	clk := &fakeClock{now: time.Now()}
	p := newTestPipeline(t, ai, &fakeStockPool{}, clk)

	result := p.Enrich(context.Background(), entity.NewsItem{Title: "冷门新闻"}, entity.ScoreResult{})

	assert.Equal(t, entity.StatusFallbackBasic, result.Status)
	require.Len(t, result.Recommendations, 1)
	assert.InDelta(t, 0.5, result.Recommendations[0].Confidence, 1e-9)
	assert.NotEmpty(t, result.Recommendations[0].Symbol)
}
