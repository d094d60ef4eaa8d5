package evaluator

import (
	"testing"

	"wisefido-bedside/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_EmptyStateNeverAlerts(t *testing.T) {
	reasons := Evaluate(models.Initial("resident-1"))
	assert.Empty(t, reasons)
}

func TestEvaluate_HeartRateBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		heartRate int
		alert     bool
	}{
		{"below minimum", 39, true},
		{"at minimum", 40, false},
		{"normal", 72, false},
		{"at maximum", 130, false},
		{"above maximum", 131, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.Initial("resident-1").WithVitals(&tt.heartRate, nil, nil, nil)
			reasons := Evaluate(state)
			if tt.alert {
				assert.Contains(t, reasons, ReasonHeartRateOutOfRange)
			} else {
				assert.Empty(t, reasons)
			}
		})
	}
}

func TestEvaluate_BloodPressureCrisis(t *testing.T) {
	tests := []struct {
		name      string
		systolic  int
		diastolic int
		alert     bool
	}{
		{"normal", 118, 76, false},
		{"just below crisis", 179, 119, false},
		{"systolic crisis", 180, 80, true},
		{"diastolic crisis", 140, 120, true},
		{"both in crisis", 200, 130, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := &models.BloodPressure{
				Systolic:  tt.systolic,
				Diastolic: tt.diastolic,
				Status:    models.BloodPressureHigh,
			}
			state := models.Initial("resident-1").WithVitals(nil, nil, bp, nil)
			reasons := Evaluate(state)
			if tt.alert {
				assert.Contains(t, reasons, ReasonBloodPressureCrisis)
			} else {
				assert.Empty(t, reasons)
			}
		})
	}
}

func TestEvaluate_TemperatureBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  models.TemperatureUnit
		alert bool
	}{
		{"normal celsius", 36.8, models.TemperatureCelsius, false},
		{"fever threshold", 39.5, models.TemperatureCelsius, true},
		{"just below fever", 39.4, models.TemperatureCelsius, false},
		{"hypothermia threshold", 35.0, models.TemperatureCelsius, true},
		{"just above hypothermia", 35.1, models.TemperatureCelsius, false},
		// 103.1°F = 39.5°C，98.6°F = 37.0°C，94.0°F = 34.4°C
		{"fever in fahrenheit", 103.1, models.TemperatureFahrenheit, true},
		{"normal fahrenheit", 98.6, models.TemperatureFahrenheit, false},
		{"hypothermia in fahrenheit", 94.0, models.TemperatureFahrenheit, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			temp := &models.Temperature{
				Value:  tt.value,
				Unit:   tt.unit,
				Status: models.TemperatureNormal,
			}
			state := models.Initial("resident-1").WithVitals(nil, nil, nil, temp)
			reasons := Evaluate(state)
			if tt.alert {
				assert.Contains(t, reasons, ReasonTemperatureCritical)
			} else {
				assert.Empty(t, reasons)
			}
		})
	}
}

func TestEvaluate_ArrhythmiaRisk(t *testing.T) {
	tests := []struct {
		name  string
		level models.RiskLevel
		alert bool
	}{
		{"low risk", models.RiskLevelLow, false},
		{"moderate risk", models.RiskLevelModerate, false},
		{"elevated risk", models.RiskLevelElevated, false},
		{"high risk", models.RiskLevelHigh, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rhythm := models.HeartRhythmIrregular
			confidence := 0.9
			state := models.Initial("resident-1").WithAnalysis(models.AIAnalysis{
				Rhythm:     &rhythm,
				Confidence: &confidence,
				RiskLevel:  &tt.level,
			})
			reasons := Evaluate(state)
			if tt.alert {
				assert.Contains(t, reasons, ReasonArrhythmiaRiskHigh)
			} else {
				assert.Empty(t, reasons)
			}
		})
	}
}

func TestEvaluate_AccumulatesReasons(t *testing.T) {
	heartRate := 150
	bp := &models.BloodPressure{Systolic: 185, Diastolic: 95, Status: models.BloodPressureHigh}
	temp := &models.Temperature{Value: 40.1, Unit: models.TemperatureCelsius, Status: models.TemperatureFever}
	rhythm := models.HeartRhythmIrregular
	confidence := 0.9
	riskLevel := models.RiskLevelHigh

	state := models.Initial("resident-1").
		WithVitals(&heartRate, nil, bp, temp).
		WithAnalysis(models.AIAnalysis{Rhythm: &rhythm, Confidence: &confidence, RiskLevel: &riskLevel})

	reasons := Evaluate(state)
	assert.ElementsMatch(t, []string{
		ReasonHeartRateOutOfRange,
		ReasonBloodPressureCrisis,
		ReasonTemperatureCritical,
		ReasonArrhythmiaRiskHigh,
	}, reasons)
}

func TestApply_SetsAndClearsFlag(t *testing.T) {
	heartRate := 150
	state := Apply(models.Initial("resident-1").WithVitals(&heartRate, nil, nil, nil))
	assert.True(t, state.HasCriticalAlert)

	// 心率回到安全区间后报警必须清除
	normal := 72
	state = Apply(state.WithVitals(&normal, nil, nil, nil))
	assert.False(t, state.HasCriticalAlert)

	// 读数整体消失同样清除，缺失不等于危险
	state = Apply(state.WithVitals(nil, nil, nil, nil))
	assert.False(t, state.HasCriticalAlert)
}

func TestApply_PresenceAloneNeverAlerts(t *testing.T) {
	heartRate := 88
	bp := &models.BloodPressure{Systolic: 124, Diastolic: 82, Status: models.BloodPressureElevated}
	temp := &models.Temperature{Value: 37.2, Unit: models.TemperatureCelsius, Status: models.TemperatureNormal}
	rhythm := models.HeartRhythmIrregular
	confidence := 0.9
	riskLevel := models.RiskLevelElevated

	state := Apply(models.Initial("resident-1").
		WithVitals(&heartRate, []int{810, 795, 820}, bp, temp).
		WithAnalysis(models.AIAnalysis{Rhythm: &rhythm, Confidence: &confidence, RiskLevel: &riskLevel}).
		WithDeviceConnected(true))

	assert.True(t, state.HasAnyDiagnosticData())
	assert.False(t, state.HasCriticalAlert)
}
