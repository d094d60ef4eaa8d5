package analysis

import (
	"fmt"
	"time"

	"wisefido-bedside/internal/models"
)

// 置信度档位折算为数值，界面按百分比展示
const (
	confidenceHighValue   = 0.90
	confidenceMediumValue = 0.65
	confidenceLowValue    = 0.40
)

// ToAIAnalysis 把分析服务的响应映射为诊断快照的 AI 字段
// 档位或枚举不认识时返回错误，调用方按"分析不可用"处理
func ToAIAnalysis(response *AnalyzeResponse) (models.AIAnalysis, error) {
	result := response.Analysis
	if result == nil {
		return models.AIAnalysis{}, fmt.Errorf("analysis response missing result")
	}

	confidence, err := confidenceValue(result.Confidence)
	if err != nil {
		return models.AIAnalysis{}, err
	}

	riskLevel, err := riskLevelFrom(result.RiskLevel)
	if err != nil {
		return models.AIAnalysis{}, err
	}

	recommendation, err := recommendationFrom(result.Recommendation)
	if err != nil {
		return models.AIAnalysis{}, err
	}

	rhythm := rhythmFrom(result.Confidence, riskLevel)
	riskScore := result.RiskProbability

	analysis := models.AIAnalysis{
		Rhythm:         &rhythm,
		Confidence:     &confidence,
		RiskScore:      &riskScore,
		RiskLevel:      &riskLevel,
		Recommendation: &recommendation,
	}

	// 时间戳解析失败不影响核心结论，字段保持缺失
	if response.Audit != nil {
		if ts, err := time.Parse(time.RFC3339, response.Audit.AnalyzedAtISO); err == nil {
			analysis.AnalyzedAt = &ts
		}
	}

	return analysis, nil
}

// rhythmFrom 从风险等级与置信度档位推出心律分类：
// 置信度低 → unknown；风险 low → normal；其余 → irregular
func rhythmFrom(confidenceTier string, riskLevel models.RiskLevel) models.HeartRhythm {
	if confidenceTier == "low" {
		return models.HeartRhythmUnknown
	}
	if riskLevel == models.RiskLevelLow {
		return models.HeartRhythmNormal
	}
	return models.HeartRhythmIrregular
}

func confidenceValue(tier string) (float64, error) {
	switch tier {
	case "high":
		return confidenceHighValue, nil
	case "medium":
		return confidenceMediumValue, nil
	case "low":
		return confidenceLowValue, nil
	default:
		return 0, fmt.Errorf("unknown confidence tier: %q", tier)
	}
}

func riskLevelFrom(v string) (models.RiskLevel, error) {
	switch level := models.RiskLevel(v); level {
	case models.RiskLevelLow, models.RiskLevelModerate, models.RiskLevelElevated, models.RiskLevelHigh:
		return level, nil
	default:
		return "", fmt.Errorf("unknown risk level: %q", v)
	}
}

func recommendationFrom(v string) (models.Recommendation, error) {
	switch rec := models.Recommendation(v); rec {
	case models.RecommendationNormal, models.RecommendationMonitor,
		models.RecommendationConsult, models.RecommendationUrgent:
		return rec, nil
	default:
		return "", fmt.Errorf("unknown recommendation: %q", v)
	}
}
