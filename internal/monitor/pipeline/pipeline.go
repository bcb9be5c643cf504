package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/internal/monitor/dto"
	"golang-news-radar/internal/monitor/repository"
	"golang-news-radar/pkg/clock"
	"golang-news-radar/pkg/logger"
)

const fallbackConfidenceCap = 0.95

// Pipeline runs the two-stage AI enrichment. Enrich always produces a usable
// result; failures degrade through fallbacks instead of surfacing as errors.
type Pipeline struct {
	cfg       config.Pipeline
	scoring   config.Scoring
	aiRepo    repository.AIRepository
	stockPool repository.StockPoolRepository
	clock     clock.Clock
	logger    *logger.Logger
}

// New creates an enrichment pipeline.
func New(cfg config.Pipeline, scoring config.Scoring, aiRepo repository.AIRepository, stockPool repository.StockPoolRepository, clk clock.Clock, log *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		scoring:   scoring,
		aiRepo:    aiRepo,
		stockPool: stockPool,
		clock:     clk,
		logger:    log,
	}
}

// Enrich classifies the item and refines the resulting stock picks. Callers
// branch on the result's Status, never on an error.
func (p *Pipeline) Enrich(ctx context.Context, item entity.NewsItem, score entity.ScoreResult) entity.EnrichmentResult {
	stage1, err := p.runStage1(ctx, item, score)
	if err != nil {
		p.logger.Warn("Stage-1 classification failed, using basic fallback",
			logger.StringField("title", item.Title),
			logger.ErrorField(err),
		)
		return p.fallbackBasic(item)
	}

	result := entity.EnrichmentResult{
		NewsAnalysis:  stage1.NewsAnalysis,
		PolicyImpact:  stage1.PolicyImpact,
		ThemeType:     stage1.ThemeClassification.ThemeType,
		HardcoreLevel: stage1.ThemeClassification.HardcoreLevel,
	}

	stage1Recs := toRecommendations(stage1.Recommendations)
	if len(stage1Recs) == 0 {
		result.Status = entity.StatusRoughOnly
		return result
	}

	stage2, err := p.runStage2(ctx, item, stage1)
	if err != nil {
		p.logger.Warn("Stage-2 refinement exhausted, using enhanced fallback",
			logger.StringField("title", item.Title),
			logger.ErrorField(err),
		)
		result.Status = entity.StatusFallbackEnhanced
		result.Recommendations = p.fallbackEnhance(item, stage1Recs)
		result.Stage1Recommendations = stage1Recs
		return result
	}

	result.Status = entity.StatusRefined
	result.Recommendations = toRecommendations(stage2.FinalRecommendations)
	result.Stage1Recommendations = stage1Recs
	return result
}

// runStage1 performs the single bounded classification call. There is no
// retry; stage-1 failure is terminal for the AI path.
func (p *Pipeline) runStage1(ctx context.Context, item entity.NewsItem, score entity.ScoreResult) (*dto.Stage1Result, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.Stage1Timeout)
	defer cancel()
	return p.aiRepo.ClassifyNews(stageCtx, item, score)
}

func (p *Pipeline) runStage2(ctx context.Context, item entity.NewsItem, stage1 *dto.Stage1Result) (*dto.Stage2Result, error) {
	if err := p.clock.Sleep(ctx, p.cfg.Stage2SettleDelay); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.Stage2MaxAttempts; attempt++ {
		stage2, err := p.attemptStage2(ctx, item, stage1)
		if err == nil {
			return stage2, nil
		}
		lastErr = err
		p.logger.Warn("Stage-2 attempt failed",
			logger.IntField("attempt", attempt),
			logger.StringField("title", item.Title),
			logger.ErrorField(err),
		)

		if attempt < p.cfg.Stage2MaxAttempts {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if err := p.clock.Sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

func (p *Pipeline) attemptStage2(ctx context.Context, item entity.NewsItem, stage1 *dto.Stage1Result) (*dto.Stage2Result, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.Stage2Timeout)
	defer cancel()

	stage2, err := p.aiRepo.RefineRecommendations(stageCtx, item, stage1)
	if err != nil {
		return nil, err
	}
	// A parseable but empty list does not satisfy the response schema.
	if len(stage2.FinalRecommendations) == 0 {
		return nil, fmt.Errorf("stage-2 response contained no recommendations")
	}
	return stage2, nil
}

// fallbackEnhance adjusts the stage-1 picks with deterministic rules so a
// stage-2 outage still yields a ranked list.
func (p *Pipeline) fallbackEnhance(item entity.NewsItem, stage1Recs []entity.Recommendation) []entity.Recommendation {
	enhanced := make([]entity.Recommendation, len(stage1Recs))
	copy(enhanced, stage1Recs)

	policyInTitle := containsAny(item.Title, p.scoring.PolicyKeywords)
	for i := range enhanced {
		confidence := enhanced[i].Confidence
		if policyInTitle {
			confidence += 0.10
		}
		if containsAny(enhanced[i].Reason, p.scoring.HotSectorKeywords) {
			confidence += 0.05
		}
		if confidence > fallbackConfidenceCap {
			confidence = fallbackConfidenceCap
		}
		enhanced[i].Confidence = confidence
	}

	sort.SliceStable(enhanced, func(i, j int) bool {
		return enhanced[i].Confidence > enhanced[j].Confidence
	})
	for i := range enhanced {
		enhanced[i].Rank = i + 1
	}
	return enhanced
}

// fallbackBasic derives picks from the stock pool when the AI is unreachable.
// It always returns at least one entry.
func (p *Pipeline) fallbackBasic(item entity.NewsItem) entity.EnrichmentResult {
	result := entity.EnrichmentResult{
		Status:       entity.StatusFallbackBasic,
		NewsAnalysis: "AI分析不可用，基于关键词匹配的基础推荐",
	}

	refs := p.stockPool.LookupByKeyword(item.Title)
	if len(refs) == 0 {
		result.Recommendations = []entity.Recommendation{{
			Rank:       1,
			Symbol:     "000001",
			Name:       "平安银行",
			Reason:     "默认稳健推荐，新闻未命中关键词",
			Confidence: 0.5,
		}}
		return result
	}

	recs := make([]entity.Recommendation, 0, len(refs))
	for i, ref := range refs {
		recs = append(recs, entity.Recommendation{
			Rank:       i + 1,
			Symbol:     ref.Symbol,
			Name:       ref.Name,
			Reason:     ref.Reason,
			Confidence: 0.5,
		})
	}
	result.Recommendations = recs
	return result
}

func toRecommendations(picks []dto.StockPick) []entity.Recommendation {
	recs := make([]entity.Recommendation, 0, len(picks))
	for i, pick := range picks {
		rank := pick.Rank
		if rank == 0 {
			rank = i + 1
		}
		recs = append(recs, entity.Recommendation{
			Rank:       rank,
			Symbol:     pick.StockCode,
			Name:       pick.StockName,
			Reason:     pick.Reason,
			Confidence: pick.Confidence,
		})
	}
	return recs
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
