// Package provider 组装诊断页快照
//
// 数据源三路汇合：Redis 实时体征（上游融合管线写入）、PostgreSQL 历史与
// 睡眠报告、心律分析服务。任何一路不可用只让对应字段缺失，绝不编造读数。
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"wisefido-bedside/internal/analysis"
	"wisefido-bedside/internal/config"
	"wisefido-bedside/internal/evaluator"
	"wisefido-bedside/internal/models"
	"wisefido-bedside/internal/repository"
	"wisefido-bedside/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 首次进入诊断页时留给 AI 分析的时间；超过就先渲染，分析结果等下一轮刷新
const initialAnalysisBudget = 5 * time.Second

const analysisNote = "automated arrhythmia analysis"

// Analyzer 心律分析入口（*analysis.Client 实现）
type Analyzer interface {
	Analyze(request *analysis.AnalyzeRequest) (*analysis.AnalyzeResponse, error)
}

// DiagnosticProvider 诊断快照装配器
type DiagnosticProvider struct {
	kv       store.KV
	repo     *repository.DiagnosticRepository
	analyzer Analyzer
	logger   *zap.Logger

	historyPageSize int
	snapshotTTL     time.Duration
	analysisBudget  time.Duration
}

// NewDiagnosticProvider 创建装配器
func NewDiagnosticProvider(kv store.KV, repo *repository.DiagnosticRepository, analyzer Analyzer, cfg *config.Config, logger *zap.Logger) *DiagnosticProvider {
	return &DiagnosticProvider{
		kv:              kv,
		repo:            repo,
		analyzer:        analyzer,
		logger:          logger,
		historyPageSize: cfg.Bedside.HistoryPageSize,
		snapshotTTL:     time.Duration(cfg.Bedside.SnapshotTTLHours) * time.Hour,
		analysisBudget:  initialAnalysisBudget,
	}
}

// LoadInitialState 进入诊断页时装配初始快照
// 总是返回可渲染的快照：数据源全部失联时退回最近一次成功快照或全空初始态
func (p *DiagnosticProvider) LoadInitialState(ctx context.Context, residentID string) models.DiagnosticState {
	return p.assemble(ctx, residentID, p.analysisBudget)
}

// RefreshState 后台刷新快照（不限分析等待时间）
func (p *DiagnosticProvider) RefreshState(ctx context.Context, residentID string) models.DiagnosticState {
	return p.assemble(ctx, residentID, 0)
}

func (p *DiagnosticProvider) assemble(ctx context.Context, residentID string, analysisBudget time.Duration) models.DiagnosticState {
	realtime, err := p.loadRealtime(ctx, residentID)
	if err != nil && !errors.Is(err, store.ErrMiss) {
		// Redis 异常（不是单纯没数据）：退回最近一次成功快照
		p.logger.Warn("Realtime read failed, falling back to last snapshot",
			zap.String("resident_id", residentID),
			zap.Error(err),
		)
		return p.lastSnapshot(ctx, residentID)
	}

	state := models.Initial(residentID)

	if realtime != nil {
		bp := classifyBloodPressure(realtime.Systolic, realtime.Diastolic)
		temp := classifyTemperature(realtime.TemperatureC)
		state = state.
			WithVitals(realtime.HeartRate, realtime.RRIntervals, bp, temp).
			WithDeviceConnected(realtime.DeviceConnected)
	}

	// 历史与睡眠来自 PostgreSQL，失败只让对应字段缺失
	if history, err := p.repo.GetHistory(residentID, p.historyPageSize, 0); err != nil {
		p.logger.Warn("Failed to load diagnostic history",
			zap.String("resident_id", residentID),
			zap.Error(err),
		)
	} else {
		state = state.WithHistory(history)
	}

	if sleep, err := p.repo.GetLatestSleepSummary(residentID); err != nil {
		p.logger.Warn("Failed to load sleep summary",
			zap.String("resident_id", residentID),
			zap.Error(err),
		)
	} else if sleep != nil {
		state = state.WithSleep(sleep)
	}

	if aiAnalysis, ok := p.runAnalysis(ctx, residentID, realtime, analysisBudget); ok {
		state = state.WithAnalysis(aiAnalysis)
		p.recordAnalysis(state)
	}

	// 报警位只来自显式阈值规则
	state = evaluator.Apply(state)

	p.saveSnapshot(ctx, state)

	return state
}

// loadRealtime 读取上游写入的实时体征
// key 不存在返回 store.ErrMiss；载荷损坏按缺失处理（只记日志）
func (p *DiagnosticProvider) loadRealtime(ctx context.Context, residentID string) (*models.RealtimeVitals, error) {
	raw, err := p.kv.Get(ctx, store.RealtimeKey(residentID))
	if err != nil {
		return nil, err
	}

	var realtime models.RealtimeVitals
	if err := json.Unmarshal([]byte(raw), &realtime); err != nil {
		p.logger.Warn("Corrupt realtime payload, treating as absent",
			zap.String("resident_id", residentID),
			zap.Error(err),
		)
		return nil, store.ErrMiss
	}

	return &realtime, nil
}

// runAnalysis 窗口有效才发起分析；budget > 0 时到点放弃等待
func (p *DiagnosticProvider) runAnalysis(ctx context.Context, residentID string, realtime *models.RealtimeVitals, budget time.Duration) (models.AIAnalysis, bool) {
	if realtime == nil || len(realtime.RRIntervals) == 0 {
		return models.AIAnalysis{}, false
	}
	if realtime.WindowStart == nil || realtime.WindowEnd == nil {
		return models.AIAnalysis{}, false
	}

	windowSeconds := float64(*realtime.WindowEnd - *realtime.WindowStart)
	rrMS := make([]float64, len(realtime.RRIntervals))
	for i, v := range realtime.RRIntervals {
		rrMS[i] = float64(v)
	}

	valid, err := analysis.ValidateWindow(rrMS, windowSeconds)
	if err != nil {
		p.logger.Info("RR window rejected, skipping analysis",
			zap.String("resident_id", residentID),
			zap.Error(err),
		)
		return models.AIAnalysis{}, false
	}

	request := &analysis.AnalyzeRequest{
		RequestID:     uuid.New().String(),
		RRIntervalsMS: valid,
		WindowMetadata: analysis.WindowMetadata{
			StartTimestampISO: time.Unix(*realtime.WindowStart, 0).UTC().Format(time.RFC3339),
			EndTimestampISO:   time.Unix(*realtime.WindowEnd, 0).UTC().Format(time.RFC3339),
			PatientUID:        residentID,
		},
	}

	response, err := p.analyze(ctx, request, budget)
	if err != nil {
		p.logger.Warn("Analysis unavailable, rendering without it",
			zap.String("resident_id", residentID),
			zap.String("request_id", request.RequestID),
			zap.Error(err),
		)
		return models.AIAnalysis{}, false
	}

	aiAnalysis, err := analysis.ToAIAnalysis(response)
	if err != nil {
		p.logger.Warn("Analysis response rejected",
			zap.String("resident_id", residentID),
			zap.String("request_id", request.RequestID),
			zap.Error(err),
		)
		return models.AIAnalysis{}, false
	}

	return aiAnalysis, true
}

func (p *DiagnosticProvider) analyze(ctx context.Context, request *analysis.AnalyzeRequest, budget time.Duration) (*analysis.AnalyzeResponse, error) {
	if budget <= 0 {
		return p.analyzer.Analyze(request)
	}

	type analyzeResult struct {
		response *analysis.AnalyzeResponse
		err      error
	}

	ch := make(chan analyzeResult, 1)
	go func() {
		response, err := p.analyzer.Analyze(request)
		ch <- analyzeResult{response, err}
	}()

	select {
	case result := <-ch:
		return result.response, result.err
	case <-time.After(budget):
		return nil, errors.New("analysis exceeded initial load budget")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordAnalysis 每次成功分析落一条历史记录，下一轮加载时可见
func (p *DiagnosticProvider) recordAnalysis(state models.DiagnosticState) {
	note := analysisNote
	record := models.PastDiagnosticRecord{
		RecordID:    uuid.New().String(),
		ResidentID:  state.ResidentID,
		RecordedAt:  time.Now().UTC(),
		HeartRate:   state.HeartRate,
		HeartRhythm: state.HeartRhythm,
		RiskLevel:   state.RiskLevel,
		Note:        &note,
	}

	if err := p.repo.CreateRecord(record); err != nil {
		p.logger.Warn("Failed to persist analysis record",
			zap.String("resident_id", state.ResidentID),
			zap.Error(err),
		)
	}
}

// lastSnapshot 最近一次成功快照；没有就退回全空初始态
func (p *DiagnosticProvider) lastSnapshot(ctx context.Context, residentID string) models.DiagnosticState {
	raw, err := p.kv.Get(ctx, store.SnapshotKey(residentID))
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			p.logger.Warn("Snapshot read failed",
				zap.String("resident_id", residentID),
				zap.Error(err),
			)
		}
		return models.Initial(residentID)
	}

	var state models.DiagnosticState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		p.logger.Warn("Corrupt snapshot, starting from empty state",
			zap.String("resident_id", residentID),
			zap.Error(err),
		)
		return models.Initial(residentID)
	}

	return state
}

func (p *DiagnosticProvider) saveSnapshot(ctx context.Context, state models.DiagnosticState) {
	data, err := json.Marshal(state)
	if err != nil {
		p.logger.Error("Failed to marshal snapshot", zap.Error(err))
		return
	}

	if err := p.kv.Set(ctx, store.SnapshotKey(state.ResidentID), string(data), p.snapshotTTL); err != nil {
		p.logger.Warn("Failed to cache snapshot",
			zap.String("resident_id", state.ResidentID),
			zap.Error(err),
		)
	}
}

// classifyBloodPressure 血压分级（收缩压/舒张压都有值才算一次读数）
func classifyBloodPressure(systolic, diastolic *int) *models.BloodPressure {
	if systolic == nil || diastolic == nil {
		return nil
	}

	s, d := *systolic, *diastolic

	var status models.BloodPressureStatus
	switch {
	case s < 90 || d < 60:
		status = models.BloodPressureLow
	case s < 120 && d < 80:
		status = models.BloodPressureNormal
	case s < 130 && d < 80:
		status = models.BloodPressureElevated
	default:
		status = models.BloodPressureHigh
	}

	return &models.BloodPressure{Systolic: s, Diastolic: d, Status: status}
}

// classifyTemperature 体温分级（上游统一为摄氏）
func classifyTemperature(celsius *float64) *models.Temperature {
	if celsius == nil {
		return nil
	}

	var status models.TemperatureStatus
	switch {
	case *celsius >= 38.0:
		status = models.TemperatureFever
	case *celsius <= 35.0:
		status = models.TemperatureHypothermia
	default:
		status = models.TemperatureNormal
	}

	return &models.Temperature{Value: *celsius, Unit: models.TemperatureCelsius, Status: status}
}
