package analysis

import (
	"fmt"
	"time"

	"wisefido-bedside/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WindowMetadata 分析窗口的时间与来源信息
type WindowMetadata struct {
	StartTimestampISO string `json:"start_timestamp_iso"`
	EndTimestampISO   string `json:"end_timestamp_iso"`
	SourceDevice      string `json:"source_device,omitempty"`
	PatientUID        string `json:"patient_uid,omitempty"`
}

// AnalyzeRequest 心律分析请求（POST /v1/arrhythmia/analyze）
type AnalyzeRequest struct {
	RequestID      string         `json:"request_id"`
	RRIntervalsMS  []float64      `json:"rr_intervals_ms"`
	WindowMetadata WindowMetadata `json:"window_metadata"`
}

// AnalysisResult 分析服务返回的核心结论
type AnalysisResult struct {
	RiskProbability float64 `json:"risk_probability"` // [0,1]
	RiskLevel       string  `json:"risk_level"`       // low/moderate/elevated/high
	Confidence      string  `json:"confidence"`       // high/medium/low
	Recommendation  string  `json:"recommendation"`
}

// AnalysisAudit 分析服务的审计信息
type AnalysisAudit struct {
	AnalyzedAtISO   string  `json:"analyzed_at_iso"`
	RRCountReceived int     `json:"rr_count_received"`
	WindowDurationS float64 `json:"window_duration_s"`
}

// AnalyzeResponse 心律分析响应
type AnalyzeResponse struct {
	RequestID string          `json:"request_id"`
	Status    string          `json:"status"`
	Analysis  *AnalysisResult `json:"analysis"`
	Audit     *AnalysisAudit  `json:"audit"`
}

// HealthResponse GET /health 响应
type HealthResponse struct {
	Status          string  `json:"status"`
	ModelLoaded     bool    `json:"model_loaded"`
	ModelVersion    string  `json:"model_version"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	LastInferenceAt *string `json:"last_inference_at"`
}

// Client 心律分析服务客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建分析服务客户端
func NewClient(cfg *config.AnalysisConfig, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// Analyze 提交一个 RR 窗口做心律失常分析
func (c *Client) Analyze(request *AnalyzeRequest) (*AnalyzeResponse, error) {
	c.logger.Info("Calling analysis service: analyze",
		zap.String("request_id", request.RequestID),
		zap.Int("rr_count", len(request.RRIntervalsMS)),
	)

	var response AnalyzeResponse
	resp, err := c.httpClient.R().
		SetBody(request).
		SetResult(&response).
		Post("/v1/arrhythmia/analyze")

	if err != nil {
		c.logger.Error("Analysis service call failed",
			zap.Error(err),
			zap.String("request_id", request.RequestID),
		)
		return nil, fmt.Errorf("failed to call analysis service: %w", err)
	}

	if resp.IsError() {
		c.logger.Error("Analysis service returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("request_id", request.RequestID),
			zap.String("body", resp.String()),
		)
		return nil, fmt.Errorf("analysis service error: HTTP %d", resp.StatusCode())
	}

	if response.Status != "completed" {
		return nil, fmt.Errorf("analysis not completed: status %q", response.Status)
	}
	if response.Analysis == nil {
		return nil, fmt.Errorf("analysis response missing result")
	}

	c.logger.Info("Analysis completed",
		zap.String("request_id", request.RequestID),
		zap.String("risk_level", response.Analysis.RiskLevel),
		zap.String("confidence", response.Analysis.Confidence),
	)

	return &response, nil
}

// Health 探测分析服务健康状态（模型是否加载完成）
func (c *Client) Health() (*HealthResponse, error) {
	var response HealthResponse
	resp, err := c.httpClient.R().
		SetResult(&response).
		Get("/health")

	if err != nil {
		return nil, fmt.Errorf("failed to call analysis service health: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("analysis service health error: HTTP %d", resp.StatusCode())
	}

	return &response, nil
}
