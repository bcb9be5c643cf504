package scorer

import (
	"strings"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/pkg/clock"
)

const (
	recencyWeight     = 0.34
	hardnessWeight    = 0.33
	persistenceWeight = 0.33
)

// Scorer computes the three-factor importance score of a news item. It is
// deterministic for a fixed clock.
type Scorer struct {
	cfg   config.Scoring
	clock clock.Clock
}

// New creates a scorer from the static scoring tables.
func New(cfg config.Scoring, clk clock.Clock) *Scorer {
	return &Scorer{cfg: cfg, clock: clk}
}

// Score computes the composite importance of item at the current time.
func (s *Scorer) Score(item entity.NewsItem) entity.ScoreResult {
	// Unknown publish time is treated as just published, which biases the
	// item toward analysis rather than silently dropping it.
	hours := 0.0
	if item.PublishedAt != nil {
		hours = s.clock.Now().Sub(*item.PublishedAt).Hours()
		if hours < 0 {
			hours = 0
		}
	}

	recency := recencyScore(hours)
	weight := s.sourceWeight(item.Source)
	policyHits := countHits(item.Title+item.Summary, s.cfg.PolicyKeywords)
	hardness := 0.7*weight + 0.3*min(1.0, 0.15*float64(policyHits))
	persistence := s.persistenceScore(item.Title)

	return entity.ScoreResult{
		Recency:           recency,
		Hardness:          hardness,
		Persistence:       persistence,
		Composite:         recencyWeight*recency + hardnessWeight*hardness + persistenceWeight*persistence,
		SourceWeight:      weight,
		PolicyHits:        policyHits,
		HoursSincePublish: hours,
	}
}

func recencyScore(hours float64) float64 {
	switch {
	case hours <= 1:
		return 1.0
	case hours <= 6:
		return 0.8
	case hours <= 24:
		return 0.6
	default:
		return max(0.2, 0.6-0.01*(hours-24))
	}
}

func (s *Scorer) sourceWeight(source string) float64 {
	if w, ok := s.cfg.SourceWeights[source]; ok {
		return w
	}
	return s.cfg.DefaultSourceWeight
}

func (s *Scorer) persistenceScore(title string) float64 {
	titleLen := float64(len([]rune(title)))
	base := 0.5 + 0.3*min(1.0, titleLen/30.0)
	if countHits(title, s.cfg.ContinuityKeywords) > 0 {
		base += 0.2
	}
	return min(1.0, base)
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}
