package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/internal/monitor/dto"
	"golang-news-radar/pkg/logger"
	"golang-news-radar/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiAIRepository implements AIRepository using the Google Gemini API.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// ClassifyNews performs the rough stage-1 classification.
func (r *geminiAIRepository) ClassifyNews(ctx context.Context, item entity.NewsItem, score entity.ScoreResult) (*dto.Stage1Result, error) {
	prompt := BuildStage1Prompt(item, score)

	content, err := r.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result dto.Stage1Result
	if err := UnmarshalAIResponse(content, &result); err != nil {
		r.logger.Error("Failed to parse stage-1 response", logger.ErrorField(err), logger.StringField("title", item.Title))
		return nil, err
	}
	return &result, nil
}

// RefineRecommendations performs the stage-2 re-ranking of the stage-1
// output.
func (r *geminiAIRepository) RefineRecommendations(ctx context.Context, item entity.NewsItem, stage1 *dto.Stage1Result) (*dto.Stage2Result, error) {
	prompt := BuildStage2Prompt(item, stage1)

	content, err := r.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result dto.Stage2Result
	if err := UnmarshalAIResponse(content, &result); err != nil {
		r.logger.Error("Failed to parse stage-2 response", logger.ErrorField(err), logger.StringField("title", item.Title))
		return nil, err
	}
	return &result, nil
}

// Ping exercises the API with a trivial prompt and checks for an OK reply.
func (r *geminiAIRepository) Ping(ctx context.Context) error {
	content, err := r.generate(ctx, PingPrompt)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToUpper(content), "OK") {
		return fmt.Errorf("unexpected ping reply: %s", content)
	}
	return nil
}

func (r *geminiAIRepository) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}

	tokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(tokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, int(tokenResp.TotalTokens)); err != nil {
		return "", fmt.Errorf("failed to wait for token limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("invalid response from Gemini API: no content found")
	}
	return text, nil
}
