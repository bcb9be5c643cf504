package entity

// ScoreResult holds the three-factor importance score of a news item.
// All sub-scores and the composite are in [0,1]. Created once per item,
// never mutated.
type ScoreResult struct {
	Recency     float64 `json:"recency"`
	Hardness    float64 `json:"hardness"`
	Persistence float64 `json:"persistence"`
	Composite   float64 `json:"composite"`

	// Detail fields carried into the enrichment prompt.
	SourceWeight      float64 `json:"source_weight"`
	PolicyHits        int     `json:"policy_hits"`
	HoursSincePublish float64 `json:"hours_since_publish"`
}
