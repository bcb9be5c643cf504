package dto

// StockPick is one recommendation entry as returned by the AI.
type StockPick struct {
	Rank       int     `json:"rank"`
	StockCode  string  `json:"stock_code"`
	StockName  string  `json:"stock_name"`
	Reason     string  `json:"recommendation_reason"`
	Confidence float64 `json:"confidence_score"`
}

// ThemeClassification is the stage-1 theme breakdown.
type ThemeClassification struct {
	ThemeType           string   `json:"theme_type"`
	HardcoreLevel       string   `json:"hardcore_level"`
	SustainabilityScore float64  `json:"sustainability_score"`
	RelatedSectors      []string `json:"related_sectors"`
}

// Stage1Result is the expected JSON structure of the rough classification
// stage.
type Stage1Result struct {
	NewsAnalysis        string              `json:"news_analysis"`
	PolicyImpact        string              `json:"policy_impact"`
	ThemeClassification ThemeClassification `json:"theme_classification"`
	Recommendations     []StockPick         `json:"recommendations"`
}

// Stage2Result is the expected JSON structure of the refined re-ranking
// stage.
type Stage2Result struct {
	FinalRecommendations []StockPick `json:"final_recommendations"`
	RiskAssessment       string      `json:"risk_assessment"`
	AnalysisSummary      string      `json:"analysis_summary"`
}
