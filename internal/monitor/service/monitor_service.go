package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/internal/monitor/dto"
	"golang-news-radar/internal/monitor/pipeline"
	"golang-news-radar/internal/monitor/repository"
	"golang-news-radar/internal/monitor/scorer"
	"golang-news-radar/internal/monitor/source"
	"golang-news-radar/internal/monitor/store"
	"golang-news-radar/pkg/clock"
	"golang-news-radar/pkg/logger"
	"golang-news-radar/pkg/telegram"
	"golang-news-radar/pkg/utils"

	"github.com/robfig/cron/v3"
)

// MonitorService drives the scan loop and exposes the operational signals.
type MonitorService interface {
	Start(ctx context.Context) error
	Stop()
	RunTick(ctx context.Context)
	StatusToday() (*dto.StatusReport, error)
	CheckAI(ctx context.Context) dto.AIHealthReport
}

type monitorService struct {
	cfg      *config.Config
	chain    *source.FailoverChain
	ledger   *Ledger
	scorer   *scorer.Scorer
	pipeline *pipeline.Pipeline
	aiRepo   repository.AIRepository
	store    *store.ResultStore
	notifier telegram.Notifier
	clock    clock.Clock
	logger   *logger.Logger

	cron   *cron.Cron
	tickMu sync.Mutex
}

// NewMonitorService wires the scan loop together. notifier may be nil.
func NewMonitorService(
	cfg *config.Config,
	chain *source.FailoverChain,
	ledger *Ledger,
	sc *scorer.Scorer,
	pl *pipeline.Pipeline,
	aiRepo repository.AIRepository,
	st *store.ResultStore,
	notifier telegram.Notifier,
	clk clock.Clock,
	log *logger.Logger,
) MonitorService {
	return &monitorService{
		cfg:      cfg,
		chain:    chain,
		ledger:   ledger,
		scorer:   sc,
		pipeline: pl,
		aiRepo:   aiRepo,
		store:    st,
		notifier: notifier,
		clock:    clk,
		logger:   log,
		cron:     cron.New(),
	}
}

// Start schedules the scan tick and the ledger purge sweep, then runs the
// first tick immediately.
func (s *monitorService) Start(ctx context.Context) error {
	scanSpec := fmt.Sprintf("@every %s", s.cfg.Monitor.ScanInterval)
	if _, err := s.cron.AddFunc(scanSpec, func() { s.RunTick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule scan tick: %w", err)
	}

	purgeSpec := fmt.Sprintf("@every %s", s.cfg.Monitor.DedupPurgeInterval)
	if _, err := s.cron.AddFunc(purgeSpec, func() {
		if dropped := s.ledger.Purge(); dropped > 0 {
			s.logger.Info("Purged dedup ledger", logger.IntField("dropped", dropped))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule ledger purge: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Monitor started",
		logger.StringField("scan_interval", s.cfg.Monitor.ScanInterval.String()),
		logger.IntField("fetch_limit", s.cfg.Monitor.FetchLimit),
	)

	utils.GoSafe(func() { s.RunTick(ctx) })
	return nil
}

// Stop halts the schedules. A tick already in flight runs to completion.
func (s *monitorService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Monitor stopped")
}

// RunTick performs one scan. Ticks that would overlap a running one are
// skipped.
func (s *monitorService) RunTick(ctx context.Context) {
	if !s.tickMu.TryLock() {
		s.logger.Warn("Previous scan still running, skipping tick")
		return
	}
	defer s.tickMu.Unlock()

	if !utils.ShouldContinue(ctx, s.logger) {
		return
	}

	items := s.chain.GetBatch(ctx, s.cfg.Monitor.FetchLimit)
	if len(items) == 0 {
		return
	}

	for _, item := range items {
		if !utils.ShouldContinue(ctx, s.logger) {
			return
		}
		s.processItem(ctx, item)
	}
}

func (s *monitorService) processItem(ctx context.Context, item entity.NewsItem) {
	id := item.ID()
	if !s.ledger.IsNew(id) {
		return
	}
	// Seen is recorded no matter how processing ends, so a failing item is
	// not retried every tick.
	defer s.ledger.MarkSeen(id)

	score := s.scorer.Score(item)
	s.logger.Info("Scored news item",
		logger.StringField("id", id),
		logger.StringField("title", item.Title),
		logger.Float64Field("composite", score.Composite),
	)

	if score.Composite < s.cfg.Monitor.ImportanceThreshold {
		return
	}

	enrichment := s.enrichWithBudget(ctx, item, score)

	record := entity.AnalysisRecord{
		ID:           id,
		AnalysisTime: s.clock.Now(),
		News:         item,
		Score:        score,
		Enrichment:   enrichment,
		Important:    score.Composite >= s.cfg.Monitor.HighImportanceThreshold,
	}

	if _, err := s.store.Save(record); err != nil {
		s.logger.Error("Failed to persist analysis record",
			logger.StringField("id", id),
			logger.ErrorField(err),
		)
		return
	}

	if record.Important && s.notifier != nil {
		if err := s.notifier.SendMessage(telegram.FormatAnalysisRecord(record)); err != nil {
			s.logger.Error("Failed to send important-news notification", logger.ErrorField(err))
		}
	}
}

// enrichWithBudget runs the pipeline under a wall-clock budget. On expiry the
// goroutine is abandoned, not killed; its context is cancelled so it unwinds
// on its own.
func (s *monitorService) enrichWithBudget(ctx context.Context, item entity.NewsItem, score entity.ScoreResult) entity.EnrichmentResult {
	budget := s.pipelineBudget()
	enrichCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	done := make(chan entity.EnrichmentResult, 1)
	utils.GoSafe(func() {
		done <- s.pipeline.Enrich(enrichCtx, item, score)
	})

	select {
	case result := <-done:
		return result
	case <-enrichCtx.Done():
		s.logger.Warn("Enrichment budget exceeded, abandoning",
			logger.StringField("title", item.Title),
			logger.StringField("budget", budget.String()),
		)
		return entity.EnrichmentResult{Status: entity.StatusFailed}
	}
}

func (s *monitorService) pipelineBudget() time.Duration {
	p := s.cfg.Pipeline
	budget := p.Stage1Timeout + p.Stage2SettleDelay
	for attempt := 1; attempt <= p.Stage2MaxAttempts; attempt++ {
		budget += p.Stage2Timeout
		if attempt < p.Stage2MaxAttempts {
			budget += time.Duration(1<<uint(attempt)) * time.Second
		}
	}
	return budget + s.cfg.Monitor.EnrichTimeoutMargin
}

// StatusToday reports the current day's counters and per-source quota state.
func (s *monitorService) StatusToday() (*dto.StatusReport, error) {
	day := s.clock.Now().Format("2006-01-02")
	summary, err := s.store.ReadDailySummary(day)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily summary: %w", err)
	}
	return &dto.StatusReport{
		Date:       day,
		Summary:    summary,
		Sources:    s.chain.Status(),
		LastSource: s.chain.LastSource(),
		LedgerSize: s.ledger.Size(),
	}, nil
}

// CheckAI probes the configured AI provider with a trivial prompt.
func (s *monitorService) CheckAI(ctx context.Context) dto.AIHealthReport {
	report := dto.AIHealthReport{Provider: s.cfg.AI.Provider}
	if err := s.aiRepo.Ping(ctx); err != nil {
		report.Error = err.Error()
		return report
	}
	report.Reachable = true
	return report
}
