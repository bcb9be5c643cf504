package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/internal/monitor/dto"
	"golang-news-radar/pkg/logger"
	"golang-news-radar/pkg/ratelimit"

	"golang.org/x/time/rate"
)

const stage2SystemPrompt = "你是专业的股票分析师，擅长综合技术分析和基本面分析进行精准股票推荐。请基于提供的数据，对股票进行重新评估和精准排序。"

// deepSeekAIRepository implements AIRepository against the DeepSeek
// chat-completions API.
type deepSeekAIRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
}

// NewDeepSeekAIRepository creates a new instance of deepSeekAIRepository.
func NewDeepSeekAIRepository(cfg *config.Config, log *logger.Logger) AIRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.DeepSeek.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.DeepSeek.MaxTokenPerMinute)

	return &deepSeekAIRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		tokenLimiter:   tokenLimiter,
		requestLimiter: requestLimiter,
	}
}

// ClassifyNews performs the rough stage-1 classification.
func (r *deepSeekAIRepository) ClassifyNews(ctx context.Context, item entity.NewsItem, score entity.ScoreResult) (*dto.Stage1Result, error) {
	prompt := BuildStage1Prompt(item, score)

	content, err := r.sendRequest(ctx, "", prompt)
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
func (r *deepSeekAIRepository) RefineRecommendations(ctx context.Context, item entity.NewsItem, stage1 *dto.Stage1Result) (*dto.Stage2Result, error) {
	prompt := BuildStage2Prompt(item, stage1)

	content, err := r.sendRequest(ctx, stage2SystemPrompt, prompt)
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
func (r *deepSeekAIRepository) Ping(ctx context.Context) error {
	content, err := r.sendRequest(ctx, "", PingPrompt)
	if err != nil {
		return err
	}
	if !strings.Contains(strings.ToUpper(content), "OK") {
		return fmt.Errorf("unexpected ping reply: %s", content)
	}
	return nil
}

func (r *deepSeekAIRepository) sendRequest(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	messages := []dto.Message{}
	if systemPrompt != "" {
		messages = append(messages, dto.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, dto.Message{Role: "user", Content: prompt})

	payload := dto.ChatRequest{
		Model:       r.cfg.DeepSeek.Model,
		Messages:    messages,
		Temperature: 0.3,
		MaxTokens:   2000,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	r.logger.Debug("Sending request to DeepSeek API", logger.StringField("url", r.cfg.DeepSeek.BaseURL), logger.StringField("model", r.cfg.DeepSeek.Model))

	req, err := http.NewRequestWithContext(ctx, "POST", r.cfg.DeepSeek.BaseURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return "", fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.cfg.DeepSeek.APIKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to DeepSeek API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Received non-OK response from DeepSeek API", logger.IntField("status_code", resp.StatusCode))
		return "", fmt.Errorf("received non-OK response from DeepSeek API: %d - %s", resp.StatusCode, string(body))
	}

	var chatResp dto.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(chatResp.Choices) == 0 || len(chatResp.Choices[0].Message.Content) == 0 {
		return "", fmt.Errorf("no content found in DeepSeek response")
	}

	if chatResp.Usage.TotalTokens > r.cfg.DeepSeek.MaxTokenPerMinute/2 {
		r.logger.Warn("Token usage has exceeded 50% of the per-minute limit", logger.IntField("remaining", r.tokenLimiter.GetRemaining()))
	}

	if err := r.tokenLimiter.Wait(ctx, chatResp.Usage.TotalTokens); err != nil {
		return "", fmt.Errorf("failed to wait for token limit: %w", err)
	}

	return chatResp.Choices[0].Message.Content, nil
}
