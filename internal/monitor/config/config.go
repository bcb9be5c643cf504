package config

import (
	"time"

	"golang-news-radar/pkg/config"
)

// Monitor holds the polling-loop configuration.
type Monitor struct {
	ScanInterval            time.Duration `mapstructure:"scan_interval"`
	FetchLimit              int           `mapstructure:"fetch_limit"`
	ImportanceThreshold     float64       `mapstructure:"importance_threshold"`
	HighImportanceThreshold float64       `mapstructure:"high_importance_threshold"`
	DataDir                 string        `mapstructure:"data_dir"`
	DedupRetention          time.Duration `mapstructure:"dedup_retention"`
	DedupPurgeInterval      time.Duration `mapstructure:"dedup_purge_interval"`
	EnrichTimeoutMargin     time.Duration `mapstructure:"enrich_timeout_margin"`
}

// Scoring holds the static tables used by the importance scorer.
type Scoring struct {
	SourceWeights       map[string]float64 `mapstructure:"source_weights"`
	DefaultSourceWeight float64            `mapstructure:"default_source_weight"`
	PolicyKeywords      []string           `mapstructure:"policy_keywords"`
	ContinuityKeywords  []string           `mapstructure:"continuity_keywords"`
	HotSectorKeywords   []string           `mapstructure:"hot_sector_keywords"`
}

// Pipeline holds the two-stage enrichment timing parameters.
type Pipeline struct {
	Stage1Timeout     time.Duration `mapstructure:"stage1_timeout"`
	Stage2Timeout     time.Duration `mapstructure:"stage2_timeout"`
	Stage2MaxAttempts int           `mapstructure:"stage2_max_attempts"`
	Stage2SettleDelay time.Duration `mapstructure:"stage2_settle_delay"`
}

// AI holds configuration for AI providers.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// DeepSeek holds the configuration for the DeepSeek chat-completions API.
type DeepSeek struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// Source describes one upstream news origin in the failover chain.
type Source struct {
	Name        string `mapstructure:"name"`
	Type        string `mapstructure:"type"` // headline_api | broadcast_scraper | rss
	URL         string `mapstructure:"url"`
	APIKey      string `mapstructure:"api_key"`
	Priority    int    `mapstructure:"priority"`
	DailyLimit  int    `mapstructure:"daily_limit"`
	CounterFile string `mapstructure:"counter_file"`
}

// StockPool points at the keyword-to-stock lookup file.
type StockPool struct {
	Path string `mapstructure:"path"`
}

// Config holds the full configuration for the monitor service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	API       config.API      `mapstructure:"api"`
	Telegram  config.Telegram `mapstructure:"telegram"`
	Monitor   Monitor         `mapstructure:"monitor"`
	Scoring   Scoring         `mapstructure:"scoring"`
	Pipeline  Pipeline        `mapstructure:"pipeline"`
	AI        AI              `mapstructure:"ai"`
	DeepSeek  DeepSeek        `mapstructure:"deepseek"`
	Gemini    Gemini          `mapstructure:"gemini"`
	Sources   []Source        `mapstructure:"sources"`
	StockPool StockPool       `mapstructure:"stock_pool"`
}

// Load loads the monitor configuration from the given path and fills in
// defaults for anything the file omits.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Monitor.ScanInterval == 0 {
		c.Monitor.ScanInterval = 300 * time.Second
	}
	if c.Monitor.FetchLimit == 0 {
		c.Monitor.FetchLimit = 10
	}
	if c.Monitor.ImportanceThreshold == 0 {
		c.Monitor.ImportanceThreshold = 0.5
	}
	if c.Monitor.HighImportanceThreshold == 0 {
		c.Monitor.HighImportanceThreshold = 0.8
	}
	if c.Monitor.DataDir == "" {
		c.Monitor.DataDir = "news_ai_analysis"
	}
	if c.Monitor.DedupRetention == 0 {
		c.Monitor.DedupRetention = 2 * time.Hour
	}
	if c.Monitor.DedupPurgeInterval == 0 {
		c.Monitor.DedupPurgeInterval = 10 * time.Minute
	}
	if c.Monitor.EnrichTimeoutMargin == 0 {
		c.Monitor.EnrichTimeoutMargin = 5 * time.Second
	}

	if c.Scoring.DefaultSourceWeight == 0 {
		c.Scoring.DefaultSourceWeight = 0.80
	}
	if len(c.Scoring.SourceWeights) == 0 {
		c.Scoring.SourceWeights = map[string]float64{
			"央视新闻":    0.95,
			"央视新闻API": 0.90,
			"头条新闻":    0.85,
		}
	}
	if len(c.Scoring.PolicyKeywords) == 0 {
		c.Scoring.PolicyKeywords = []string{
			"国务院", "党中央", "央行", "发改委", "财政部", "商务部",
			"工信部", "证监会", "银保监会", "重大", "决定", "政策",
			"支持", "促进", "发展", "规划",
		}
	}
	if len(c.Scoring.ContinuityKeywords) == 0 {
		c.Scoring.ContinuityKeywords = []string{
			"继续", "深化", "扩大", "进一步", "持续", "推进", "加强",
		}
	}
	if len(c.Scoring.HotSectorKeywords) == 0 {
		c.Scoring.HotSectorKeywords = []string{"人工智能", "新能源", "芯片", "基建"}
	}

	if c.Pipeline.Stage1Timeout == 0 {
		c.Pipeline.Stage1Timeout = 60 * time.Second
	}
	if c.Pipeline.Stage2Timeout == 0 {
		c.Pipeline.Stage2Timeout = 60 * time.Second
	}
	if c.Pipeline.Stage2MaxAttempts == 0 {
		c.Pipeline.Stage2MaxAttempts = 3
	}
	if c.Pipeline.Stage2SettleDelay == 0 {
		c.Pipeline.Stage2SettleDelay = 3 * time.Second
	}

	if c.DeepSeek.BaseURL == "" {
		c.DeepSeek.BaseURL = "https://api.deepseek.com/v1/chat/completions"
	}
	if c.DeepSeek.Model == "" {
		c.DeepSeek.Model = "deepseek-chat"
	}
	if c.DeepSeek.MaxRequestPerMinute == 0 {
		c.DeepSeek.MaxRequestPerMinute = 30
	}
	if c.DeepSeek.MaxTokenPerMinute == 0 {
		c.DeepSeek.MaxTokenPerMinute = 100000
	}
	if c.Gemini.MaxRequestPerMinute == 0 {
		c.Gemini.MaxRequestPerMinute = 10
	}
	if c.Gemini.MaxTokenPerMinute == 0 {
		c.Gemini.MaxTokenPerMinute = 250000
	}
}
