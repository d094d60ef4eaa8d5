package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"wisefido-bedside/internal/analysis"
	"wisefido-bedside/internal/store"

	"go.uber.org/zap"
)

// DBPinger 数据库连通性探针（*sql.DB 实现）
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// BrokerStatus MQTT 连接状态（*mqtt.Client 实现）
type BrokerStatus interface {
	IsConnected() bool
}

// AnalysisProbe 分析服务健康检查（*analysis.Client 实现）
type AnalysisProbe interface {
	Health() (*analysis.HealthResponse, error)
}

const healthProbeTimeout = 2 * time.Second

// HealthHandler GET /healthz 存活探针
type HealthHandler struct {
	db       DBPinger
	kv       store.KV
	broker   BrokerStatus
	analysis AnalysisProbe
	logger   *zap.Logger
}

// NewHealthHandler 创建存活探针 Handler
func NewHealthHandler(db DBPinger, kv store.KV, broker BrokerStatus, probe AnalysisProbe, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		kv:       kv,
		broker:   broker,
		analysis: probe,
		logger:   logger,
	}
}

// Healthz 各依赖的连通状态
// Postgres/Redis/MQTT 任一不通则整体 503；分析服务不可用只降级 AI 卡片，不拖垮探针
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	checks := map[string]string{
		"postgres": "up",
		"redis":    "up",
		"mqtt":     "up",
		"analysis": "up",
	}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("Postgres health check failed", zap.Error(err))
		checks["postgres"] = "down"
		healthy = false
	}

	// 探测 key 未命中也算连通，只有传输层错误才算 down
	if _, err := h.kv.Get(ctx, "healthz:probe"); err != nil && !errors.Is(err, store.ErrMiss) {
		h.logger.Warn("Redis health check failed", zap.Error(err))
		checks["redis"] = "down"
		healthy = false
	}

	if !h.broker.IsConnected() {
		checks["mqtt"] = "down"
		healthy = false
	}

	if _, err := h.analysis.Health(); err != nil {
		h.logger.Warn("Analysis service health check failed", zap.Error(err))
		checks["analysis"] = "down"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
