// Package evaluator 床旁报警规则
//
// 报警只能由这里的显式阈值规则产生：任何读数"存在"本身不是报警，
// 任何读数"缺失"也绝不触发报警。
package evaluator

import (
	"wisefido-bedside/internal/models"
)

// 报警阈值
const (
	MinHeartRate = 40  // bpm
	MaxHeartRate = 130 // bpm

	SystolicCrisis  = 180 // mmHg
	DiastolicCrisis = 120 // mmHg

	FeverCriticalC = 39.5 // °C
	HypothermiaC   = 35.0 // °C
)

// 命中规则名（日志与落库用）
const (
	ReasonHeartRateOutOfRange = "heart_rate_out_of_range"
	ReasonBloodPressureCrisis = "blood_pressure_crisis"
	ReasonTemperatureCritical = "temperature_critical"
	ReasonArrhythmiaRiskHigh  = "arrhythmia_risk_high"
)

// Evaluate 对快照执行全部报警规则，返回命中的规则名
// 返回空切片表示无报警；缺失的读数一律跳过
func Evaluate(state models.DiagnosticState) []string {
	var reasons []string

	if state.HeartRate != nil {
		hr := *state.HeartRate
		if hr < MinHeartRate || hr > MaxHeartRate {
			reasons = append(reasons, ReasonHeartRateOutOfRange)
		}
	}

	if state.BloodPressure != nil {
		bp := state.BloodPressure
		if bp.Systolic >= SystolicCrisis || bp.Diastolic >= DiastolicCrisis {
			reasons = append(reasons, ReasonBloodPressureCrisis)
		}
	}

	if state.Temperature != nil {
		celsius := toCelsius(state.Temperature)
		if celsius >= FeverCriticalC || celsius <= HypothermiaC {
			reasons = append(reasons, ReasonTemperatureCritical)
		}
	}

	if state.RiskLevel != nil && *state.RiskLevel == models.RiskLevelHigh {
		reasons = append(reasons, ReasonArrhythmiaRiskHigh)
	}

	return reasons
}

// Apply 评估快照并把报警位写入新快照
// 读数回到安全区间后旧报警随之清除，不会粘滞
func Apply(state models.DiagnosticState) models.DiagnosticState {
	return state.WithCriticalAlert(len(Evaluate(state)) > 0)
}

func toCelsius(t *models.Temperature) float64 {
	if t.Unit == models.TemperatureFahrenheit {
		return (t.Value - 32) * 5 / 9
	}
	return t.Value
}
