package models

import (
	"fmt"
	"math"
	"strconv"
)

// 占位符：数据缺失时界面显示的中性符号，绝不显示看似真实的默认值
const (
	PlaceholderValue   = "--"
	PlaceholderPercent = "--%"
	PlaceholderBP      = "--/--"
)

// HeartRateDisplay 心率投影："72 bpm"，缺失返回占位符
func (s DiagnosticState) HeartRateDisplay() string {
	if s.HeartRate == nil {
		return PlaceholderValue
	}
	return fmt.Sprintf("%d bpm", *s.HeartRate)
}

// RhythmDisplay 心律投影："normal" / "irregular" / "unknown"
func (s DiagnosticState) RhythmDisplay() string {
	if s.HeartRhythm == nil {
		return PlaceholderValue
	}
	return string(*s.HeartRhythm)
}

// ConfidenceDisplay 置信度投影："87%"（四舍五入），缺失返回 "--%"
func (s DiagnosticState) ConfidenceDisplay() string {
	if s.AIConfidence == nil {
		return PlaceholderPercent
	}
	return fmt.Sprintf("%d%%", int(math.Round(*s.AIConfidence*100)))
}

// BloodPressureDisplay 血压投影："120/80"，缺失返回 "--/--"
func (s DiagnosticState) BloodPressureDisplay() string {
	if s.BloodPressure == nil {
		return PlaceholderBP
	}
	return fmt.Sprintf("%d/%d", s.BloodPressure.Systolic, s.BloodPressure.Diastolic)
}

// TemperatureDisplay 体温投影："36.6°C"
func (s DiagnosticState) TemperatureDisplay() string {
	if s.Temperature == nil {
		return PlaceholderValue
	}
	return fmt.Sprintf("%.1f°%s", s.Temperature.Value, s.Temperature.Unit)
}

// SleepDisplay 睡眠时长投影："7.5 h"
func (s DiagnosticState) SleepDisplay() string {
	if s.Sleep == nil {
		return PlaceholderValue
	}
	return fmt.Sprintf("%.1f h", s.Sleep.HoursSlept)
}

// SleepQualityDisplay 睡眠质量投影："82%"
func (s DiagnosticState) SleepQualityDisplay() string {
	if s.Sleep == nil {
		return PlaceholderPercent
	}
	return fmt.Sprintf("%.0f%%", s.Sleep.QualityScore)
}

// RRCountDisplay RR 间期数量投影："154"
func (s DiagnosticState) RRCountDisplay() string {
	if !s.HasRRData() {
		return PlaceholderValue
	}
	return strconv.Itoa(len(s.RRIntervals))
}

// ECGSampleCountDisplay ECG 采样数量投影
func (s DiagnosticState) ECGSampleCountDisplay() string {
	if !s.HasECGData() {
		return PlaceholderValue
	}
	return strconv.Itoa(len(s.ECGSamples))
}

// RiskLevelDisplay 风险等级投影："elevated"
func (s DiagnosticState) RiskLevelDisplay() string {
	if s.RiskLevel == nil {
		return PlaceholderValue
	}
	return string(*s.RiskLevel)
}

// RiskScoreDisplay 风险概率投影："62%"
func (s DiagnosticState) RiskScoreDisplay() string {
	if s.RiskScore == nil {
		return PlaceholderPercent
	}
	return fmt.Sprintf("%d%%", int(math.Round(*s.RiskScore*100)))
}

// RecommendationDisplay 临床建议投影（人读文案）
func (s DiagnosticState) RecommendationDisplay() string {
	if s.Recommendation == nil {
		return PlaceholderValue
	}
	switch *s.Recommendation {
	case RecommendationNormal:
		return "Normal rhythm"
	case RecommendationMonitor:
		return "Continue monitoring"
	case RecommendationConsult:
		return "Consult physician"
	case RecommendationUrgent:
		return "Seek immediate care"
	default:
		return string(*s.Recommendation)
	}
}
