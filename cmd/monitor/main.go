package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-news-radar/internal/monitor/config"
	delivery "golang-news-radar/internal/monitor/delivery/http"
	"golang-news-radar/internal/monitor/pipeline"
	"golang-news-radar/internal/monitor/repository"
	"golang-news-radar/internal/monitor/scorer"
	"golang-news-radar/internal/monitor/service"
	"golang-news-radar/internal/monitor/source"
	"golang-news-radar/internal/monitor/store"
	"golang-news-radar/pkg/clock"
	"golang-news-radar/pkg/logger"
	"golang-news-radar/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the news monitor",
	Run:   runServe,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints today's monitoring status",
	Run:   runStatus,
}

var checkAICmd = &cobra.Command{
	Use:   "check-ai",
	Short: "Checks AI provider connectivity",
	Run:   runCheckAI,
}

type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	monitor service.MonitorService
}

func buildApp() *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	clk := clock.New()

	// Initialize source adapters and failover chain
	adapters := make([]source.Adapter, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		switch src.Type {
		case "headline_api":
			quota := source.NewQuotaTracker(src.CounterFile, src.DailyLimit, nil, appLogger)
			adapters = append(adapters, source.NewHeadlineAPIAdapter(src, quota, appLogger))
		case "broadcast_scraper":
			adapters = append(adapters, source.NewBroadcastScraperAdapter(src, appLogger))
		case "rss":
			adapters = append(adapters, source.NewRSSAdapter(src, appLogger))
		default:
			appLogger.Fatal("Invalid source type specified in config", zap.String("type", src.Type))
		}
	}
	chain := source.NewFailoverChain(adapters, appLogger)

	// Initialize AI provider
	var aiRepo repository.AIRepository
	switch cfg.AI.Provider {
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
		}
		repo, err := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI repository", zap.Error(err))
		}
		aiRepo = repo
	case "deepseek", "":
		aiRepo = repository.NewDeepSeekAIRepository(cfg, appLogger)
	default:
		appLogger.Fatal("Invalid AI provider specified in config", zap.String("provider", cfg.AI.Provider))
	}

	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
	}

	stockPool := repository.NewStockPoolRepository(cfg.StockPool.Path, appLogger)
	sc := scorer.New(cfg.Scoring, clk)
	pl := pipeline.New(cfg.Pipeline, cfg.Scoring, aiRepo, stockPool, clk, appLogger)
	ledger := service.NewLedger(cfg.Monitor.DedupRetention, clk)
	resultStore := store.NewResultStore(cfg.Monitor.DataDir, appLogger)

	monitor := service.NewMonitorService(cfg, chain, ledger, sc, pl, aiRepo, resultStore, notifier, clk, appLogger)

	return &app{cfg: cfg, logger: appLogger, monitor: monitor}
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := buildApp()
	defer func() { _ = a.logger.Sync() }()

	a.logger.Info("Starting News Monitor", logger.Field("name", a.cfg.App.Name))

	if err := a.monitor.Start(ctx); err != nil {
		a.logger.Fatal("Failed to start monitor", logger.ErrorField(err))
	}

	var e *echo.Echo
	if a.cfg.API.Enabled {
		e = echo.New()
		e.HideBanner = true

		statusHandler := delivery.NewStatusHandler(a.monitor, a.logger)
		apiV1 := e.Group("/api/v1")
		statusHandler.RegisterRoutes(apiV1)

		go func() {
			addr := fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port)
			a.logger.Info("HTTP server starting", logger.Field("address", addr))
			if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
				a.logger.Error("HTTP server failed to start", logger.ErrorField(err))
				stop()
			}
		}()
	}

	<-ctx.Done()

	a.logger.Info("Shutting down...")
	a.monitor.Stop()

	if e != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			a.logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
		}
	}

	a.logger.Info("Monitor exiting")
}

func runStatus(cmd *cobra.Command, args []string) {
	a := buildApp()
	defer func() { _ = a.logger.Sync() }()

	report, err := a.monitor.StatusToday()
	if err != nil {
		a.logger.Fatal("Failed to build status report", logger.ErrorField(err))
	}
	printJSON(report)
}

func runCheckAI(cmd *cobra.Command, args []string) {
	a := buildApp()
	defer func() { _ = a.logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	report := a.monitor.CheckAI(ctx)
	printJSON(report)
	if !report.Reachable {
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal output: %v", err)
	}
	fmt.Println(string(data))
}

func main() {
	rootCmd := &cobra.Command{Use: "monitor"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkAICmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing monitor CLI: %s\n", err)
		os.Exit(1)
	}
}
