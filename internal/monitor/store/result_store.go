package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang-news-radar/internal/entity"
	"golang-news-radar/pkg/logger"
)

const (
	dailyDir     = "daily_analysis"
	importantDir = "important_news"
	summaryFile  = "summary.json"
)

// ResultStore persists analysis records as per-day JSON files under a data
// directory:
//
//	<root>/daily_analysis/<date>/<hhmmss>_<id>.json
//	<root>/daily_analysis/<date>/summary.json
//	<root>/important_news/<date>_<hhmmss>_<id>.json
type ResultStore struct {
	mu     sync.Mutex
	root   string
	logger *logger.Logger
}

// NewResultStore creates a store rooted at dir.
func NewResultStore(dir string, log *logger.Logger) *ResultStore {
	return &ResultStore{root: dir, logger: log}
}

// Save writes the record, updates the day's summary, and copies the record
// into important_news when it crossed the high-importance threshold. It
// returns the path of the saved record.
func (s *ResultStore) Save(record entity.AnalysisRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := record.AnalysisTime.Format("2006-01-02")
	name := fmt.Sprintf("%s_%s.json", record.AnalysisTime.Format("150405"), record.ID)

	dayDir := filepath.Join(s.root, dailyDir, day)
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create day directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis record: %w", err)
	}

	path := filepath.Join(dayDir, name)
	if err := atomicWrite(path, data); err != nil {
		return "", fmt.Errorf("failed to write analysis record: %w", err)
	}

	if err := s.updateSummary(dayDir, day, record); err != nil {
		s.logger.Error("Failed to update daily summary", logger.StringField("date", day), logger.ErrorField(err))
	}

	if record.Important {
		impDir := filepath.Join(s.root, importantDir)
		if err := os.MkdirAll(impDir, 0o755); err != nil {
			return path, fmt.Errorf("failed to create important_news directory: %w", err)
		}
		impName := fmt.Sprintf("%s_%s", day, name)
		if err := atomicWrite(filepath.Join(impDir, impName), data); err != nil {
			return path, fmt.Errorf("failed to write important news copy: %w", err)
		}
	}
	return path, nil
}

// ListByDay reads all records saved on the given date, oldest first.
func (s *ResultStore) ListByDay(day string) ([]entity.AnalysisRecord, error) {
	dayDir := filepath.Join(s.root, dailyDir, day)
	entries, err := os.ReadDir(dayDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read day directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == summaryFile || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	records := make([]entity.AnalysisRecord, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dayDir, name))
		if err != nil {
			s.logger.Warn("Failed to read analysis record", logger.StringField("file", name), logger.ErrorField(err))
			continue
		}
		var record entity.AnalysisRecord
		if err := json.Unmarshal(data, &record); err != nil {
			s.logger.Warn("Skipping corrupt analysis record", logger.StringField("file", name), logger.ErrorField(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadDailySummary reads the summary for the given date, or nil when the day
// has no records yet.
func (s *ResultStore) ReadDailySummary(day string) (*entity.DailySummary, error) {
	data, err := os.ReadFile(filepath.Join(s.root, dailyDir, day, summaryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read daily summary: %w", err)
	}
	var summary entity.DailySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse daily summary: %w", err)
	}
	return &summary, nil
}

func (s *ResultStore) updateSummary(dayDir, day string, record entity.AnalysisRecord) error {
	summary := entity.DailySummary{Date: day}
	if data, err := os.ReadFile(filepath.Join(dayDir, summaryFile)); err == nil {
		if err := json.Unmarshal(data, &summary); err != nil {
			s.logger.Warn("Daily summary is corrupt, starting fresh", logger.StringField("date", day))
			summary = entity.DailySummary{Date: day}
		}
	}

	// Running mean over all analyzed items of the day.
	total := summary.AverageStrength * float64(summary.Analyzed)
	summary.TotalNews++
	summary.Analyzed++
	summary.AverageStrength = (total + record.Score.Composite) / float64(summary.Analyzed)
	summary.RecommendationCount += len(record.Enrichment.Recommendations)
	if record.Important {
		summary.ImportantNews++
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(dayDir, summaryFile), data)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
