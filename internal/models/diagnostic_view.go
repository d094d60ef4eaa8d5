package models

// DiagnosticFlags 派生可用性标志（界面据此决定各卡片是否渲染）
type DiagnosticFlags struct {
	HasHeartData         bool `json:"has_heart_data"`
	HasRRData            bool `json:"has_rr_data"`
	HasECGData           bool `json:"has_ecg_data"`
	HasAIAnalysis        bool `json:"has_ai_analysis"`
	HasDiagnosticHistory bool `json:"has_diagnostic_history"`
	HasAnyDiagnosticData bool `json:"has_any_diagnostic_data"`
	HasCompleteBreakdown bool `json:"has_complete_breakdown"`
	DeviceConnected      bool `json:"device_connected"`
	HasCriticalAlert     bool `json:"has_critical_alert"`
}

// DiagnosticDisplays 显示投影集合：界面只消费这些字符串，不自行格式化读数
type DiagnosticDisplays struct {
	HeartRate      string `json:"heart_rate"`
	Rhythm         string `json:"rhythm"`
	Confidence     string `json:"confidence"`
	BloodPressure  string `json:"blood_pressure"`
	Temperature    string `json:"temperature"`
	Sleep          string `json:"sleep"`
	SleepQuality   string `json:"sleep_quality"`
	RRCount        string `json:"rr_count"`
	ECGSampleCount string `json:"ecg_sample_count"`
	RiskLevel      string `json:"risk_level"`
	RiskScore      string `json:"risk_score"`
	Recommendation string `json:"recommendation"`
}

// DiagnosticView API 返回给诊断页的完整数据：快照 + 标志 + 投影
type DiagnosticView struct {
	State    DiagnosticState    `json:"state"`
	Flags    DiagnosticFlags    `json:"flags"`
	Displays DiagnosticDisplays `json:"displays"`
}

// NewDiagnosticView 由快照构建视图（纯函数）
func NewDiagnosticView(s DiagnosticState) DiagnosticView {
	return DiagnosticView{
		State: s,
		Flags: DiagnosticFlags{
			HasHeartData:         s.HasHeartData(),
			HasRRData:            s.HasRRData(),
			HasECGData:           s.HasECGData(),
			HasAIAnalysis:        s.HasAIAnalysis(),
			HasDiagnosticHistory: s.HasDiagnosticHistory(),
			HasAnyDiagnosticData: s.HasAnyDiagnosticData(),
			HasCompleteBreakdown: s.HasCompleteBreakdown(),
			DeviceConnected:      s.DeviceConnected,
			HasCriticalAlert:     s.HasCriticalAlert,
		},
		Displays: DiagnosticDisplays{
			HeartRate:      s.HeartRateDisplay(),
			Rhythm:         s.RhythmDisplay(),
			Confidence:     s.ConfidenceDisplay(),
			BloodPressure:  s.BloodPressureDisplay(),
			Temperature:    s.TemperatureDisplay(),
			Sleep:          s.SleepDisplay(),
			SleepQuality:   s.SleepQualityDisplay(),
			RRCount:        s.RRCountDisplay(),
			ECGSampleCount: s.ECGSampleCountDisplay(),
			RiskLevel:      s.RiskLevelDisplay(),
			RiskScore:      s.RiskScoreDisplay(),
			Recommendation: s.RecommendationDisplay(),
		},
	}
}
