package telegram

import (
	"fmt"
	"strings"

	"golang-news-radar/internal/entity"
	"golang-news-radar/pkg/utils"
)

var statusLabels = map[entity.EnrichmentStatus]string{
	entity.StatusRefined:          "🎯 精准分析",
	entity.StatusRoughOnly:        "📋 粗筛分析",
	entity.StatusFallbackEnhanced: "🔧 规则增强",
	entity.StatusFallbackBasic:    "📌 基础推荐",
	entity.StatusFailed:           "⚠️ 分析失败",
}

// FormatAnalysisRecord formats an analysis record as a Markdown message for
// Telegram, capped at the Telegram message limit.
func FormatAnalysisRecord(record entity.AnalysisRecord) string {
	const maxLen = 4090

	var b strings.Builder
	b.WriteString("🔥 *重要新闻分析* 🔥\n\n")
	b.WriteString(fmt.Sprintf("📰 *%s*\n", record.News.Title))
	b.WriteString(fmt.Sprintf("📺 来源: %s\n", record.News.Source))
	b.WriteString(fmt.Sprintf("📊 综合强度: %.2f\n", record.Score.Composite))

	label, ok := statusLabels[record.Enrichment.Status]
	if !ok {
		label = string(record.Enrichment.Status)
	}
	b.WriteString(fmt.Sprintf("%s\n", label))

	if record.Enrichment.ThemeType != "" {
		b.WriteString(fmt.Sprintf("🏷 题材: %s (%s)\n", record.Enrichment.ThemeType, record.Enrichment.HardcoreLevel))
	}

	if len(record.Enrichment.Recommendations) > 0 {
		b.WriteString("\n💡 *推荐股票:*\n")
		for _, rec := range record.Enrichment.Recommendations {
			b.WriteString(fmt.Sprintf("%d. %s(%s) 信心度 %.2f\n   %s\n",
				rec.Rank, rec.Name, rec.Symbol, rec.Confidence, rec.Reason))
		}
	}

	msg := b.String()
	if len(msg) > maxLen {
		msg = utils.TruncateRunes(msg, maxLen/4)
	}
	return msg
}
