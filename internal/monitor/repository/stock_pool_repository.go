package repository

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"golang-news-radar/internal/entity"
	"golang-news-radar/pkg/logger"
)

// stockPoolRepository is a file-backed keyword-to-stock lookup. The pool is
// loaded once at construction; lookups never perform I/O.
type stockPoolRepository struct {
	logger *logger.Logger
	// keywords kept sorted so lookups are deterministic.
	keywords []string
	pool     map[string][]entity.StockRef
}

// NewStockPoolRepository loads the keyword pool from path. A missing or
// corrupt file falls back to the built-in default pool.
func NewStockPoolRepository(path string, log *logger.Logger) StockPoolRepository {
	pool := loadPoolFile(path, log)
	if len(pool) == 0 {
		pool = defaultStockPool()
	}

	keywords := make([]string, 0, len(pool))
	for kw := range pool {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	return &stockPoolRepository{
		logger:   log,
		keywords: keywords,
		pool:     pool,
	}
}

// LookupByKeyword returns the stocks mapped to the first pool keyword found
// in text, or nil when no keyword matches.
func (r *stockPoolRepository) LookupByKeyword(text string) []entity.StockRef {
	for _, kw := range r.keywords {
		if strings.Contains(text, kw) {
			refs := make([]entity.StockRef, len(r.pool[kw]))
			copy(refs, r.pool[kw])
			for i := range refs {
				refs[i].Reason = "基于新闻关键词'" + kw + "'的" + refs[i].Reason
			}
			return refs
		}
	}
	return nil
}

func loadPoolFile(path string, log *logger.Logger) map[string][]entity.StockRef {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Failed to read stock pool file, using built-in pool", logger.StringField("path", path), logger.ErrorField(err))
		return nil
	}
	var pool map[string][]entity.StockRef
	if err := json.Unmarshal(data, &pool); err != nil {
		log.Warn("Failed to parse stock pool file, using built-in pool", logger.StringField("path", path), logger.ErrorField(err))
		return nil
	}
	return pool
}

func defaultStockPool() map[string][]entity.StockRef {
	return map[string][]entity.StockRef{
		"银行": {
			{Symbol: "000001", Name: "平安银行", Reason: "银行业龙头"},
			{Symbol: "600036", Name: "招商银行", Reason: "零售银行领先"},
		},
		"新能源": {
			{Symbol: "002594", Name: "比亚迪", Reason: "新能源汽车龙头"},
			{Symbol: "300750", Name: "宁德时代", Reason: "动力电池龙头"},
		},
		"科技": {
			{Symbol: "002415", Name: "海康威视", Reason: "安防科技龙头"},
			{Symbol: "002230", Name: "科大讯飞", Reason: "AI语音技术"},
		},
		"基建": {
			{Symbol: "601800", Name: "中国交建", Reason: "基建工程龙头"},
			{Symbol: "601668", Name: "中国建筑", Reason: "建筑央企龙头"},
		},
	}
}
