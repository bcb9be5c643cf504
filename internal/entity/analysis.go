package entity

import "time"

// EnrichmentStatus tags the terminal state of the enrichment pipeline for
// one item. Callers branch on this tag, never on errors.
type EnrichmentStatus string

const (
	// StatusRefined means both AI stages completed.
	StatusRefined EnrichmentStatus = "refined"
	// StatusRoughOnly means stage 1 succeeded with zero recommendations,
	// so there was nothing to refine.
	StatusRoughOnly EnrichmentStatus = "rough_only"
	// StatusFallbackEnhanced means stage 2 exhausted its retries and the
	// stage-1 list was re-ranked by local rules.
	StatusFallbackEnhanced EnrichmentStatus = "fallback_enhanced"
	// StatusFallbackBasic means stage 1 failed and recommendations come
	// from the keyword stock pool.
	StatusFallbackBasic EnrichmentStatus = "fallback_basic"
	// StatusFailed is reserved for programming errors; the pipeline still
	// returns a result carrying it.
	StatusFailed EnrichmentStatus = "failed"
)

// Recommendation is one ranked stock suggestion.
type Recommendation struct {
	Rank       int     `json:"rank"`
	Symbol     string  `json:"stock_code"`
	Name       string  `json:"stock_name"`
	Reason     string  `json:"recommendation_reason"`
	Confidence float64 `json:"confidence_score"`
}

// EnrichmentResult is the outcome of the two-stage AI pipeline for one
// news item. Immutable once the pipeline completes.
type EnrichmentResult struct {
	Status          EnrichmentStatus `json:"status"`
	NewsAnalysis    string           `json:"news_analysis,omitempty"`
	PolicyImpact    string           `json:"policy_impact,omitempty"`
	ThemeType       string           `json:"theme_type,omitempty"`
	HardcoreLevel   string           `json:"hardcore_level,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`

	// Stage1Recommendations keeps the rough list for audit when stage 2
	// produced (or rule-adjusted) the final one.
	Stage1Recommendations []Recommendation `json:"stage1_recommendations,omitempty"`
}

// AnalysisRecord is the persisted unit: one analyzed news item with its
// score and enrichment outcome.
type AnalysisRecord struct {
	ID           string           `json:"id"`
	AnalysisTime time.Time        `json:"analysis_time"`
	News         NewsItem         `json:"news_info"`
	Score        ScoreResult      `json:"three_factor_analysis"`
	Enrichment   EnrichmentResult `json:"ai_analysis"`
	Important    bool             `json:"important"`
}

// DailySummary aggregates one calendar day of analysis activity.
type DailySummary struct {
	Date                string  `json:"date"`
	TotalNews           int     `json:"total_news"`
	Analyzed            int     `json:"ai_analyzed"`
	ImportantNews       int     `json:"important_news"`
	AverageStrength     float64 `json:"average_strength"`
	RecommendationCount int     `json:"ai_recommendations_count"`
}

// StockRef is a symbol/name pair from the keyword stock pool.
type StockRef struct {
	Symbol string `json:"stock_code"`
	Name   string `json:"stock_name"`
	Reason string `json:"reason,omitempty"`
}
