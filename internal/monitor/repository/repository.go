package repository

import (
	"context"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/dto"
)

// AIRepository is the AI collaborator behind the two-stage enrichment
// pipeline.
type AIRepository interface {
	// ClassifyNews runs the rough stage-1 classification of a news item.
	ClassifyNews(ctx context.Context, item entity.NewsItem, score entity.ScoreResult) (*dto.Stage1Result, error)
	// RefineRecommendations runs the stage-2 re-ranking of the stage-1
	// output.
	RefineRecommendations(ctx context.Context, item entity.NewsItem, stage1 *dto.Stage1Result) (*dto.Stage2Result, error)
	// Ping exercises the AI service with a trivial prompt.
	Ping(ctx context.Context) error
}

// StockPoolRepository resolves keywords found in news text to candidate
// stocks. Used only by the basic fallback path.
type StockPoolRepository interface {
	LookupByKeyword(text string) []entity.StockRef
}
