package repository

import (
	"fmt"
	"strings"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/dto"
	"golang-news-radar/pkg/utils"
)

// PingPrompt is the trivial prompt used by the connectivity check.
const PingPrompt = "只需回复 OK"

// BuildStage1Prompt builds the rough classification prompt from a news item
// and its three-factor score.
func BuildStage1Prompt(item entity.NewsItem, score entity.ScoreResult) string {
	return fmt.Sprintf(`你是专业的A股投资顾问，请基于新闻的三要素分析推荐股票：

📺 新闻分析：
标题：%s
来源：%s
分类：%s

📊 三要素评分：
• 第一时间性：%.2f (发布%.1f小时前)
• 硬核程度：%.2f (源权重%.2f, 政策词%d个)
• 持续性：%.2f
• 综合强度：%.2f

基于这条新闻的评分(%.2f)，请推荐最多5只最相关的A股：

要求：
1. 与新闻内容高度相关
2. 考虑政策导向和时效性
3. 股票代码必须真实（6位数字）
4. 重点分析新闻来源的权威性影响
5. 预测相关板块和题材持续性

返回JSON格式：
{
    "news_analysis": "新闻重要性分析",
    "policy_impact": "政策影响评估",
    "theme_classification": {
        "theme_type": "题材类型",
        "hardcore_level": "硬核等级(国家意志/政策导向/行业意志/市场驱动/概念炒作)",
        "sustainability_score": 8,
        "related_sectors": ["相关板块1", "相关板块2"]
    },
    "recommendations": [
        {
            "rank": 1,
            "stock_code": "000001",
            "stock_name": "公司名称",
            "recommendation_reason": "基于新闻的推荐理由",
            "confidence_score": 0.85
        }
    ]
}

只返回JSON，不要其他文字。`,
		item.Title, item.Source, item.Category,
		score.Recency, score.HoursSincePublish,
		score.Hardness, score.SourceWeight, score.PolicyHits,
		score.Persistence, score.Composite, score.Composite)
}

// BuildStage2Prompt builds the refined re-ranking prompt from the original
// item and the stage-1 output.
func BuildStage2Prompt(item entity.NewsItem, stage1 *dto.Stage1Result) string {
	var picks strings.Builder
	for _, rec := range stage1.Recommendations {
		picks.WriteString(fmt.Sprintf("- %s(%s) 信心度:%.2f 理由:%s\n",
			rec.StockName, rec.StockCode, rec.Confidence, rec.Reason))
	}

	return fmt.Sprintf(`请基于以下信息进行第二阶段精准分析：

【原始新闻】
标题：%s
内容：%s

【第一阶段分析】
推荐股票数量：%d只
题材分类：%s
硬核等级：%s
初选股票：
%s
【精准分析要求】
请综合考虑新闻匹配度、政策受益程度、短期催化剂强度和板块风险，
对第一阶段推荐的股票进行重新评估和精准排序。

请给出：
1. 最终推荐股票（最多5只，按推荐强度排序）
2. 每只股票的综合评分（0-1分）
3. 精准推荐理由
4. 风险提示

返回JSON格式：
{
    "final_recommendations": [
        {
            "rank": 1,
            "stock_code": "000001",
            "stock_name": "公司名称",
            "recommendation_reason": "精准推荐理由",
            "confidence_score": 0.85
        }
    ],
    "risk_assessment": "风险提示",
    "analysis_summary": "分析总结"
}

只返回JSON，不要其他文字。`,
		item.Title, utils.TruncateRunes(item.Summary, 500),
		len(stage1.Recommendations),
		stage1.ThemeClassification.ThemeType,
		stage1.ThemeClassification.HardcoreLevel,
		picks.String())
}
