package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"wisefido-bedside/internal/config"
	"wisefido-bedside/internal/models"

	"go.uber.org/zap"
)

// DiagnosticSource 诊断快照来源（*provider.DiagnosticProvider 实现）
// 装配失败在来源内部降级，这里拿到的永远是可渲染的状态
type DiagnosticSource interface {
	LoadInitialState(ctx context.Context, residentID string) models.DiagnosticState
	RefreshState(ctx context.Context, residentID string) models.DiagnosticState
}

// HistoryStore 历史诊断记录查询（*repository.DiagnosticRepository 实现）
type HistoryStore interface {
	GetHistory(residentID string, limit, offset int) ([]models.PastDiagnosticRecord, error)
	CountHistory(residentID string) (int, error)
}

// historyExportLimit 导出上限：一次最多导出这么多条
const historyExportLimit = 10000

// DiagnosticHandler 诊断页 Handler
type DiagnosticHandler struct {
	source      DiagnosticSource
	history     HistoryStore
	pageSize    int
	maxPageSize int
	logger      *zap.Logger
}

// NewDiagnosticHandler 创建诊断页 Handler
func NewDiagnosticHandler(source DiagnosticSource, history HistoryStore, cfg *config.Config, logger *zap.Logger) *DiagnosticHandler {
	return &DiagnosticHandler{
		source:      source,
		history:     history,
		pageSize:    cfg.Bedside.HistoryPageSize,
		maxPageSize: cfg.Bedside.HistoryMaxPageSize,
		logger:      logger,
	}
}

// GetDiagnostic 诊断快照 + 派生标志 + 显示投影
// 无数据不是错误：缺失字段以占位符投影返回，HTTP 状态恒为 200
func (h *DiagnosticHandler) GetDiagnostic(w http.ResponseWriter, r *http.Request, residentID string) {
	state := h.source.LoadInitialState(r.Context(), residentID)
	writeJSON(w, http.StatusOK, Ok(models.NewDiagnosticView(state)))
}

// RefreshDiagnostic 重新装配快照（分析调用不限时）
func (h *DiagnosticHandler) RefreshDiagnostic(w http.ResponseWriter, r *http.Request, residentID string) {
	state := h.source.RefreshState(r.Context(), residentID)
	writeJSON(w, http.StatusOK, Ok(models.NewDiagnosticView(state)))
}

// GetHistory 分页查询历史诊断记录（最新在前）
func (h *DiagnosticHandler) GetHistory(w http.ResponseWriter, r *http.Request, residentID string) {
	page := parseInt(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}
	size := parseInt(r.URL.Query().Get("size"), h.pageSize)
	if size < 1 {
		size = h.pageSize
	}
	if size > h.maxPageSize {
		size = h.maxPageSize
	}

	records, err := h.history.GetHistory(residentID, size, (page-1)*size)
	if err != nil {
		h.logger.Error("Failed to load diagnostic history",
			zap.Error(err),
			zap.String("resident_id", residentID),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if records == nil {
		records = []models.PastDiagnosticRecord{}
	}

	total, err := h.history.CountHistory(residentID)
	if err != nil {
		h.logger.Error("Failed to count diagnostic history",
			zap.Error(err),
			zap.String("resident_id", residentID),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": records,
		"pagination": map[string]any{
			"total": total,
			"page":  page,
			"size":  size,
		},
	}))
}

// ExportHistory 导出历史诊断记录为 XLSX
func (h *DiagnosticHandler) ExportHistory(w http.ResponseWriter, r *http.Request, residentID string) {
	records, err := h.history.GetHistory(residentID, historyExportLimit, 0)
	if err != nil {
		h.logger.Error("Failed to load diagnostic history for export",
			zap.Error(err),
			zap.String("resident_id", residentID),
		)
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to load history: %v", err)))
		return
	}

	excelData, err := GenerateHistoryExport(records)
	if err != nil {
		h.logger.Error("GenerateHistoryExport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=diagnostic-history-%s.xlsx", residentID))
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}
