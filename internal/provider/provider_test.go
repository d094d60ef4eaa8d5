package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wisefido-bedside/internal/analysis"
	"wisefido-bedside/internal/config"
	"wisefido-bedside/internal/models"
	"wisefido-bedside/internal/repository"
	"wisefido-bedside/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeAnalyzer struct {
	response *analysis.AnalyzeResponse
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (f *fakeAnalyzer) Analyze(request *analysis.AnalyzeRequest) (*analysis.AnalyzeResponse, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

// kvStub 模拟 Redis 故障：除预置快照外全部报错
type kvStub struct {
	snapshot string
}

func (s *kvStub) Get(ctx context.Context, key string) (string, error) {
	if strings.HasSuffix(key, ":snapshot") && s.snapshot != "" {
		return s.snapshot, nil
	}
	return "", errors.New("connection refused")
}

func (s *kvStub) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (s *kvStub) Del(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func (s *kvStub) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Bedside.HistoryPageSize = 20
	cfg.Bedside.SnapshotTTLHours = 24
	return cfg
}

func setupProvider(t *testing.T, analyzer Analyzer) (*DiagnosticProvider, *miniredis.Miniredis, sqlmock.Sqlmock) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisKV(client)

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.NewDiagnosticRepository(db, zap.NewNop())

	p := NewDiagnosticProvider(kv, repo, analyzer, testConfig(), zap.NewNop())
	return p, mr, mock
}

func seedRealtime(t *testing.T, mr *miniredis.Miniredis, residentID string, vitals models.RealtimeVitals) {
	data, err := json.Marshal(vitals)
	assert.NoError(t, err)
	assert.NoError(t, mr.Set(store.RealtimeKey(residentID), string(data)))
}

func expectEmptyPostgres(mock sqlmock.Sqlmock, residentID string) {
	mock.ExpectQuery(`FROM diagnostic_records`).
		WithArgs(residentID, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"record_id", "resident_id", "recorded_at", "heart_rate", "heart_rhythm", "risk_level", "note",
		}))
	mock.ExpectQuery(`FROM sleep_reports`).
		WithArgs(residentID).
		WillReturnError(sql.ErrNoRows)
}

func completedLowRisk() *analysis.AnalyzeResponse {
	return &analysis.AnalyzeResponse{
		RequestID: "req-test",
		Status:    "completed",
		Analysis: &analysis.AnalysisResult{
			RiskProbability: 0.12,
			RiskLevel:       "low",
			Confidence:      "high",
			Recommendation:  "normal_rhythm",
		},
		Audit: &analysis.AnalysisAudit{
			AnalyzedAtISO:   "2025-06-01T08:30:00Z",
			RRCountReceived: 60,
			WindowDurationS: 48.0,
		},
	}
}

func fullRealtime() models.RealtimeVitals {
	heartRate := 76
	systolic := 118
	diastolic := 76
	temperature := 36.8
	windowStart := int64(1_000_000)
	windowEnd := int64(1_000_048)

	rr := make([]int, 60)
	for i := range rr {
		rr[i] = 800
	}

	return models.RealtimeVitals{
		HeartRate:       &heartRate,
		RRIntervals:     rr,
		WindowStart:     &windowStart,
		WindowEnd:       &windowEnd,
		Systolic:        &systolic,
		Diastolic:       &diastolic,
		TemperatureC:    &temperature,
		DeviceConnected: true,
		Timestamp:       1_000_048,
	}
}

func TestLoadInitialState_FullAssembly(t *testing.T) {
	analyzer := &fakeAnalyzer{response: completedLowRisk()}
	p, mr, mock := setupProvider(t, analyzer)

	seedRealtime(t, mr, "resident-1", fullRealtime())

	recordedAt := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	historyRows := sqlmock.NewRows([]string{
		"record_id", "resident_id", "recorded_at", "heart_rate", "heart_rhythm", "risk_level", "note",
	}).AddRow("rec-001", "resident-1", recordedAt, 70, "normal", "low", nil)

	mock.ExpectQuery(`FROM diagnostic_records`).
		WithArgs("resident-1", 20, 0).
		WillReturnRows(historyRows)
	mock.ExpectQuery(`FROM sleep_reports`).
		WithArgs("resident-1").
		WillReturnRows(sqlmock.NewRows([]string{"hours_slept", "quality_score"}).AddRow(7.5, 82.0))
	mock.ExpectExec(`INSERT INTO diagnostic_records`).
		WithArgs(sqlmock.AnyArg(), "resident-1", sqlmock.AnyArg(), 76, "normal", "low", "automated arrhythmia analysis").
		WillReturnResult(sqlmock.NewResult(1, 1))

	state := p.LoadInitialState(context.Background(), "resident-1")

	assert.Equal(t, "resident-1", state.ResidentID)
	assert.Equal(t, 76, *state.HeartRate)
	assert.Len(t, state.RRIntervals, 60)
	assert.Equal(t, models.BloodPressureNormal, state.BloodPressure.Status)
	assert.Equal(t, models.TemperatureNormal, state.Temperature.Status)
	assert.Equal(t, 7.5, state.Sleep.HoursSlept)
	assert.Len(t, state.History, 1)
	assert.True(t, state.DeviceConnected)

	assert.True(t, state.HasAIAnalysis())
	assert.Equal(t, models.HeartRhythmNormal, *state.HeartRhythm)
	assert.Equal(t, 0.90, *state.AIConfidence)
	assert.Equal(t, 0.12, *state.RiskScore)
	assert.Equal(t, models.RiskLevelLow, *state.RiskLevel)
	assert.Equal(t, models.RecommendationNormal, *state.Recommendation)

	assert.False(t, state.HasCriticalAlert)
	assert.Equal(t, int32(1), analyzer.calls.Load())

	// 快照落进 Redis，带 TTL
	raw, err := mr.Get(store.SnapshotKey("resident-1"))
	assert.NoError(t, err)
	var cached models.DiagnosticState
	assert.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, 76, *cached.HeartRate)
	assert.Equal(t, 24*time.Hour, mr.TTL(store.SnapshotKey("resident-1")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInitialState_NoRealtime(t *testing.T) {
	analyzer := &fakeAnalyzer{response: completedLowRisk()}
	p, mr, mock := setupProvider(t, analyzer)

	expectEmptyPostgres(mock, "resident-2")

	state := p.LoadInitialState(context.Background(), "resident-2")

	assert.False(t, state.HasAnyDiagnosticData())
	assert.False(t, state.DeviceConnected)
	assert.False(t, state.HasCriticalAlert)
	assert.Equal(t, int32(0), analyzer.calls.Load())

	// 空快照同样落盘：降级时如实呈现"一无所知"
	assert.True(t, mr.Exists(store.SnapshotKey("resident-2")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInitialState_InvalidWindowSkipsAnalysis(t *testing.T) {
	analyzer := &fakeAnalyzer{response: completedLowRisk()}
	p, mr, mock := setupProvider(t, analyzer)

	vitals := fullRealtime()
	vitals.RRIntervals = vitals.RRIntervals[:20] // 不足最小窗口长度
	seedRealtime(t, mr, "resident-1", vitals)

	expectEmptyPostgres(mock, "resident-1")

	state := p.LoadInitialState(context.Background(), "resident-1")

	assert.Equal(t, 76, *state.HeartRate)
	assert.False(t, state.HasAIAnalysis())
	assert.Equal(t, int32(0), analyzer.calls.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInitialState_AnalysisFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("service unavailable")}
	p, mr, mock := setupProvider(t, analyzer)

	seedRealtime(t, mr, "resident-1", fullRealtime())
	expectEmptyPostgres(mock, "resident-1")

	state := p.LoadInitialState(context.Background(), "resident-1")

	// 分析失败只让 AI 字段缺失，其余照常渲染
	assert.Equal(t, 76, *state.HeartRate)
	assert.Equal(t, models.BloodPressureNormal, state.BloodPressure.Status)
	assert.False(t, state.HasAIAnalysis())
	assert.Nil(t, state.RiskLevel)
	assert.False(t, state.HasCriticalAlert)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInitialState_AnalysisExceedsBudget(t *testing.T) {
	analyzer := &fakeAnalyzer{response: completedLowRisk(), delay: 200 * time.Millisecond}
	p, mr, mock := setupProvider(t, analyzer)
	p.analysisBudget = 20 * time.Millisecond

	seedRealtime(t, mr, "resident-1", fullRealtime())
	expectEmptyPostgres(mock, "resident-1")

	state := p.LoadInitialState(context.Background(), "resident-1")

	// 预算内没等到结果：先渲染，不阻塞进入页面
	assert.Equal(t, 76, *state.HeartRate)
	assert.False(t, state.HasAIAnalysis())

	// 后台刷新不受预算限制，等完整结果
	expectEmptyPostgres(mock, "resident-1")
	mock.ExpectExec(`INSERT INTO diagnostic_records`).
		WithArgs(sqlmock.AnyArg(), "resident-1", sqlmock.AnyArg(), 76, "normal", "low", "automated arrhythmia analysis").
		WillReturnResult(sqlmock.NewResult(1, 1))

	refreshed := p.RefreshState(context.Background(), "resident-1")
	assert.True(t, refreshed.HasAIAnalysis())
	assert.Equal(t, models.HeartRhythmNormal, *refreshed.HeartRhythm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInitialState_RedisErrorFallsBackToSnapshot(t *testing.T) {
	heartRate := 70
	snapshot := models.Initial("resident-1").WithVitals(&heartRate, nil, nil, nil)
	data, err := json.Marshal(snapshot)
	assert.NoError(t, err)

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewDiagnosticRepository(db, zap.NewNop())

	p := NewDiagnosticProvider(&kvStub{snapshot: string(data)}, repo, &fakeAnalyzer{}, testConfig(), zap.NewNop())

	state := p.LoadInitialState(context.Background(), "resident-1")

	assert.Equal(t, 70, *state.HeartRate)
	// 降级路径不再访问 PostgreSQL
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInitialState_RedisErrorNoSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewDiagnosticRepository(db, zap.NewNop())

	p := NewDiagnosticProvider(&kvStub{}, repo, &fakeAnalyzer{}, testConfig(), zap.NewNop())

	state := p.LoadInitialState(context.Background(), "resident-9")

	assert.Equal(t, "resident-9", state.ResidentID)
	assert.False(t, state.HasAnyDiagnosticData())
	assert.False(t, state.HasCriticalAlert)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInitialState_CorruptRealtime(t *testing.T) {
	analyzer := &fakeAnalyzer{response: completedLowRisk()}
	p, mr, mock := setupProvider(t, analyzer)

	assert.NoError(t, mr.Set(store.RealtimeKey("resident-1"), "{not json"))
	expectEmptyPostgres(mock, "resident-1")

	state := p.LoadInitialState(context.Background(), "resident-1")

	assert.False(t, state.HasAnyDiagnosticData())
	assert.Equal(t, int32(0), analyzer.calls.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadInitialState_ThresholdAlert(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	p, mr, mock := setupProvider(t, analyzer)

	heartRate := 150
	seedRealtime(t, mr, "resident-1", models.RealtimeVitals{
		HeartRate:       &heartRate,
		DeviceConnected: true,
		Timestamp:       1_000_000,
	})
	expectEmptyPostgres(mock, "resident-1")

	state := p.LoadInitialState(context.Background(), "resident-1")

	assert.True(t, state.HasCriticalAlert)

	// 报警位随快照缓存
	raw, err := mr.Get(store.SnapshotKey("resident-1"))
	assert.NoError(t, err)
	var cached models.DiagnosticState
	assert.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.True(t, cached.HasCriticalAlert)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyBloodPressure(t *testing.T) {
	intPtr := func(v int) *int { return &v }

	assert.Nil(t, classifyBloodPressure(nil, intPtr(76)))
	assert.Nil(t, classifyBloodPressure(intPtr(118), nil))

	tests := []struct {
		name     string
		s, d     int
		expected models.BloodPressureStatus
	}{
		{"low systolic", 85, 55, models.BloodPressureLow},
		{"low diastolic only", 92, 55, models.BloodPressureLow},
		{"normal", 118, 76, models.BloodPressureNormal},
		{"elevated", 124, 78, models.BloodPressureElevated},
		{"high systolic", 132, 78, models.BloodPressureHigh},
		{"high diastolic", 118, 92, models.BloodPressureHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := classifyBloodPressure(&tt.s, &tt.d)
			assert.Equal(t, tt.expected, bp.Status)
			assert.Equal(t, tt.s, bp.Systolic)
			assert.Equal(t, tt.d, bp.Diastolic)
		})
	}
}

func TestClassifyTemperature(t *testing.T) {
	assert.Nil(t, classifyTemperature(nil))

	tests := []struct {
		name     string
		value    float64
		expected models.TemperatureStatus
	}{
		{"normal", 36.8, models.TemperatureNormal},
		{"fever", 38.0, models.TemperatureFever},
		{"high fever", 40.2, models.TemperatureFever},
		{"hypothermia", 35.0, models.TemperatureHypothermia},
		{"upper normal", 37.9, models.TemperatureNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			temp := classifyTemperature(&tt.value)
			assert.Equal(t, tt.expected, temp.Status)
			assert.Equal(t, tt.value, temp.Value)
			assert.Equal(t, models.TemperatureCelsius, temp.Unit)
		})
	}
}
