package models

import "time"

// HeartRhythm 心律分类（由 AI 分析结果映射）
type HeartRhythm string

const (
	HeartRhythmNormal    HeartRhythm = "normal"
	HeartRhythmIrregular HeartRhythm = "irregular"
	HeartRhythmUnknown   HeartRhythm = "unknown"
)

// RiskLevel 心律失常风险等级（分析服务返回）
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelModerate RiskLevel = "moderate"
	RiskLevelElevated RiskLevel = "elevated"
	RiskLevelHigh     RiskLevel = "high"
)

// Recommendation 分析服务给出的临床建议
type Recommendation string

const (
	RecommendationNormal  Recommendation = "normal_rhythm"
	RecommendationMonitor Recommendation = "continue_monitoring"
	RecommendationConsult Recommendation = "consult_physician"
	RecommendationUrgent  Recommendation = "seek_immediate_care"
)

// BloodPressureStatus 血压分级
type BloodPressureStatus string

const (
	BloodPressureLow      BloodPressureStatus = "low"
	BloodPressureNormal   BloodPressureStatus = "normal"
	BloodPressureElevated BloodPressureStatus = "elevated"
	BloodPressureHigh     BloodPressureStatus = "high"
)

// TemperatureUnit 温度单位
type TemperatureUnit string

const (
	TemperatureCelsius    TemperatureUnit = "C"
	TemperatureFahrenheit TemperatureUnit = "F"
)

// TemperatureStatus 体温分级
type TemperatureStatus string

const (
	TemperatureNormal      TemperatureStatus = "normal"
	TemperatureFever       TemperatureStatus = "fever"
	TemperatureHypothermia TemperatureStatus = "hypothermia"
)

// BloodPressure 血压读数（存在即完整：Systolic/Diastolic/Status 均有值）
type BloodPressure struct {
	Systolic  int                 `json:"systolic"`
	Diastolic int                 `json:"diastolic"`
	Status    BloodPressureStatus `json:"status"`
}

// Temperature 体温读数
type Temperature struct {
	Value  float64           `json:"value"`
	Unit   TemperatureUnit   `json:"unit"`
	Status TemperatureStatus `json:"status"`
}

// SleepSummary 睡眠摘要（来自最近一份睡眠报告）
type SleepSummary struct {
	HoursSlept   float64 `json:"hours_slept"`
	QualityScore float64 `json:"quality_score"` // 0~100
}

// ConfidenceBreakdown 置信度分项
// 子项独立可空：任一子项缺失视为"无完整分项"，界面不得渲染局部置信度
type ConfidenceBreakdown struct {
	Rhythm      *float64 `json:"rhythm,omitempty"`
	Variability *float64 `json:"variability,omitempty"`
	Pattern     *float64 `json:"pattern,omitempty"`
	Overall     *float64 `json:"overall,omitempty"`
}

// PastDiagnosticRecord 历史诊断记录（来自 diagnostic_records 表）
type PastDiagnosticRecord struct {
	RecordID    string       `json:"record_id"`
	ResidentID  string       `json:"resident_id"`
	RecordedAt  time.Time    `json:"recorded_at"`
	HeartRate   *int         `json:"heart_rate,omitempty"`
	HeartRhythm *HeartRhythm `json:"heart_rhythm,omitempty"`
	RiskLevel   *RiskLevel   `json:"risk_level,omitempty"`
	Note        *string      `json:"note,omitempty"`
}

// AIAnalysis 一次 AI 分析的全部产出（WithAnalysis 的入参）
type AIAnalysis struct {
	Rhythm         *HeartRhythm
	Confidence     *float64
	Breakdown      *ConfidenceBreakdown
	RiskScore      *float64
	RiskLevel      *RiskLevel
	Recommendation *Recommendation
	AnalyzedAt     *time.Time
}

// DiagnosticState 诊断页快照（不可变）
// 所有读数字段独立可空：缺失就是缺失，绝不用 0/-1 等哨兵值冒充"未知"。
// 任何"更新"都通过 With* 方法产出新快照，已发布的快照不原地修改。
type DiagnosticState struct {
	ResidentID string `json:"resident_id"`

	// 生命体征
	HeartRate   *int      `json:"heart_rate,omitempty"`   // 心率 (bpm)
	RRIntervals []int     `json:"rr_intervals,omitempty"` // RR 间期 (ms)，有序
	ECGSamples  []float64 `json:"ecg_samples,omitempty"`

	// AI 分析结果
	HeartRhythm         *HeartRhythm         `json:"heart_rhythm,omitempty"`
	AIConfidence        *float64             `json:"ai_confidence,omitempty"` // [0,1]
	ConfidenceBreakdown *ConfidenceBreakdown `json:"confidence_breakdown,omitempty"`
	RiskScore           *float64             `json:"risk_score,omitempty"` // [0,1]
	RiskLevel           *RiskLevel           `json:"risk_level,omitempty"`
	Recommendation      *Recommendation      `json:"recommendation,omitempty"`
	AnalyzedAt          *time.Time           `json:"analyzed_at,omitempty"`

	// 其它体征
	BloodPressure *BloodPressure `json:"blood_pressure,omitempty"`
	Temperature   *Temperature   `json:"temperature,omitempty"`
	Sleep         *SleepSummary  `json:"sleep,omitempty"`

	// 状态位
	DeviceConnected bool `json:"device_connected"`
	// HasCriticalAlert 只能由显式阈值规则的评估结果通过 WithCriticalAlert 写入，
	// 任何读数的"存在"本身都不构成报警
	HasCriticalAlert bool `json:"has_critical_alert"`

	// 历史记录（可为空）
	History []PastDiagnosticRecord `json:"history,omitempty"`
}

// Initial 返回全空快照：所有可空字段 nil/空、布尔 false
// 纯函数，无 I/O，可重复调用
func Initial(residentID string) DiagnosticState {
	return DiagnosticState{ResidentID: residentID}
}

// HasHeartData 心率是否存在
func (s DiagnosticState) HasHeartData() bool { return s.HeartRate != nil }

// HasRRData RR 间期是否存在（空序列视同缺失）
func (s DiagnosticState) HasRRData() bool { return len(s.RRIntervals) > 0 }

// HasECGData ECG 采样是否存在（空序列视同缺失）
func (s DiagnosticState) HasECGData() bool { return len(s.ECGSamples) > 0 }

// HasAIAnalysis 心律与置信度都存在才算有 AI 分析
func (s DiagnosticState) HasAIAnalysis() bool {
	return s.HeartRhythm != nil && s.AIConfidence != nil
}

// HasDiagnosticHistory 历史记录是否非空
func (s DiagnosticState) HasDiagnosticHistory() bool { return len(s.History) > 0 }

// HasAnyDiagnosticData 任一读数存在即为 true
func (s DiagnosticState) HasAnyDiagnosticData() bool {
	return s.HasHeartData() || s.HasRRData() || s.HasECGData() || s.HasAIAnalysis() ||
		s.BloodPressure != nil || s.Temperature != nil || s.Sleep != nil
}

// HasCompleteBreakdown 置信度分项是否完整（四个子项都有值且都在 [0,1] 内）
// 局部填充或越界按"无分项"处理，界面不渲染分项置信度
func (s DiagnosticState) HasCompleteBreakdown() bool {
	b := s.ConfidenceBreakdown
	if b == nil {
		return false
	}
	for _, component := range []*float64{b.Rhythm, b.Variability, b.Pattern, b.Overall} {
		if component == nil || *component < 0 || *component > 1 {
			return false
		}
	}
	return true
}

// WithVitals 写入实时体征，返回新快照（接收者不变）
func (s DiagnosticState) WithVitals(heartRate *int, rrIntervals []int, bp *BloodPressure, temp *Temperature) DiagnosticState {
	next := s
	next.HeartRate = copyIntPtr(heartRate)
	next.RRIntervals = copyInts(rrIntervals)
	if bp != nil {
		v := *bp
		next.BloodPressure = &v
	} else {
		next.BloodPressure = nil
	}
	if temp != nil {
		v := *temp
		next.Temperature = &v
	} else {
		next.Temperature = nil
	}
	return next
}

// WithECG 写入 ECG 采样，返回新快照
func (s DiagnosticState) WithECG(samples []float64) DiagnosticState {
	next := s
	next.ECGSamples = copyFloats(samples)
	return next
}

// WithSleep 写入睡眠摘要，返回新快照
func (s DiagnosticState) WithSleep(sleep *SleepSummary) DiagnosticState {
	next := s
	if sleep != nil {
		v := *sleep
		next.Sleep = &v
	} else {
		next.Sleep = nil
	}
	return next
}

// WithAnalysis 写入 AI 分析结果，返回新快照
func (s DiagnosticState) WithAnalysis(a AIAnalysis) DiagnosticState {
	next := s
	next.HeartRhythm = copyRhythmPtr(a.Rhythm)
	next.AIConfidence = copyFloatPtr(a.Confidence)
	if a.Breakdown != nil {
		b := ConfidenceBreakdown{
			Rhythm:      copyFloatPtr(a.Breakdown.Rhythm),
			Variability: copyFloatPtr(a.Breakdown.Variability),
			Pattern:     copyFloatPtr(a.Breakdown.Pattern),
			Overall:     copyFloatPtr(a.Breakdown.Overall),
		}
		next.ConfidenceBreakdown = &b
	} else {
		next.ConfidenceBreakdown = nil
	}
	next.RiskScore = copyFloatPtr(a.RiskScore)
	if a.RiskLevel != nil {
		v := *a.RiskLevel
		next.RiskLevel = &v
	} else {
		next.RiskLevel = nil
	}
	if a.Recommendation != nil {
		v := *a.Recommendation
		next.Recommendation = &v
	} else {
		next.Recommendation = nil
	}
	if a.AnalyzedAt != nil {
		v := *a.AnalyzedAt
		next.AnalyzedAt = &v
	} else {
		next.AnalyzedAt = nil
	}
	return next
}

// WithHistory 写入历史记录，返回新快照
func (s DiagnosticState) WithHistory(history []PastDiagnosticRecord) DiagnosticState {
	next := s
	if history == nil {
		next.History = nil
		return next
	}
	next.History = append([]PastDiagnosticRecord(nil), history...)
	return next
}

// WithDeviceConnected 写入设备连接状态，返回新快照
func (s DiagnosticState) WithDeviceConnected(connected bool) DiagnosticState {
	next := s
	next.DeviceConnected = connected
	return next
}

// WithCriticalAlert 写入报警位，返回新快照
// 唯一允许改变 HasCriticalAlert 的入口，调用方必须是显式阈值评估
func (s DiagnosticState) WithCriticalAlert(active bool) DiagnosticState {
	next := s
	next.HasCriticalAlert = active
	return next
}

func copyIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloatPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyRhythmPtr(v *HeartRhythm) *HeartRhythm {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInts(v []int) []int {
	if v == nil {
		return nil
	}
	return append([]int(nil), v...)
}

func copyFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
