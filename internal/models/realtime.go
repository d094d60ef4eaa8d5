package models

// RealtimeVitals 上游融合管线写入 Redis 的实时体征（本服务只读）
// key: bedside:resident:{resident_id}:realtime
type RealtimeVitals struct {
	// 生命体征
	HeartRate   *int  `json:"heart_rate,omitempty"`   // 融合后的心率 (bpm)
	RRIntervals []int `json:"rr_intervals,omitempty"` // RR 间期 (ms)，供心律分析

	// RR 采集窗口（Unix 秒），分析请求需要窗口起止时间
	WindowStart *int64 `json:"window_start,omitempty"`
	WindowEnd   *int64 `json:"window_end,omitempty"`

	// 可选体征（有对应外设时才出现）
	Systolic     *int     `json:"systolic,omitempty"`      // 收缩压 (mmHg)
	Diastolic    *int     `json:"diastolic,omitempty"`     // 舒张压 (mmHg)
	TemperatureC *float64 `json:"temperature_c,omitempty"` // 体温（摄氏）

	// 设备连接状态（由管线维护）
	DeviceConnected bool `json:"device_connected"`

	// 融合结果时间戳（Unix 秒）
	Timestamp int64 `json:"timestamp"`
}
