// Package service 床旁服务的装配与生命周期
package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"wisefido-bedside/internal/analysis"
	"wisefido-bedside/internal/config"
	"wisefido-bedside/internal/database"
	"wisefido-bedside/internal/httpapi"
	"wisefido-bedside/internal/mqtt"
	"wisefido-bedside/internal/provider"
	"wisefido-bedside/internal/repository"
	"wisefido-bedside/internal/rooms"
	"wisefido-bedside/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// BedsideService 床旁终端后端：诊断快照装配 + 房间设备控制
type BedsideService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
	kv          store.KV

	mqttClient     *mqtt.Client
	analysisClient *analysis.Client
	diagnosticRepo *repository.DiagnosticRepository
	roomRepo       *repository.RoomRepository

	provider   *provider.DiagnosticProvider
	controller *rooms.Controller
	router     *httpapi.Router
}

// NewBedsideService 创建床旁服务并完成全部装配
func NewBedsideService(cfg *config.Config, logger *zap.Logger) (*BedsideService, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := store.NewRedisClient(&cfg.Redis)
	if err := store.Ping(context.Background(), redisClient); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	kv := store.NewRedisKV(redisClient)

	mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	analysisClient := analysis.NewClient(&cfg.Analysis, logger)

	diagnosticRepo := repository.NewDiagnosticRepository(db, logger)
	roomRepo := repository.NewRoomRepository(db, logger)

	diagProvider := provider.NewDiagnosticProvider(kv, diagnosticRepo, analysisClient, cfg, logger)
	controller := rooms.NewController(roomRepo, kv, mqttClient, cfg, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterDiagnosticRoutes(httpapi.NewDiagnosticHandler(diagProvider, diagnosticRepo, cfg, logger))
	router.RegisterRoomRoutes(httpapi.NewRoomHandler(controller, logger))
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(db, kv, mqttClient, analysisClient, logger))

	return &BedsideService{
		config:         cfg,
		logger:         logger,
		db:             db,
		redisClient:    redisClient,
		kv:             kv,
		mqttClient:     mqttClient,
		analysisClient: analysisClient,
		diagnosticRepo: diagnosticRepo,
		roomRepo:       roomRepo,
		provider:       diagProvider,
		controller:     controller,
		router:         router,
	}, nil
}

// Handler HTTP 路由入口
func (s *BedsideService) Handler() http.Handler {
	return s.router
}

// Start 启动后台任务：房间状态预热、设备 ack 订阅、快照刷新循环
func (s *BedsideService) Start(ctx context.Context) error {
	s.logger.Info("Starting bedside service",
		zap.Int("refresh_interval_s", s.config.Bedside.RefreshIntervalSec),
		zap.Int("ack_timeout_s", s.config.Bedside.AckTimeoutSec),
	)

	// 预热失败不致命：房间状态会在首次访问时懒加载
	if err := s.controller.Preload(ctx); err != nil {
		s.logger.Error("Failed to preload room states", zap.Error(err))
	}

	// 没有 ack 订阅时所有切换都会超时回滚，直接拒绝启动
	if err := s.mqttClient.Subscribe(mqtt.AckSubscription, s.config.MQTT.QoS, s.controller.HandleAck); err != nil {
		return fmt.Errorf("failed to subscribe to device acks: %w", err)
	}

	go s.startSnapshotRefresh(ctx)

	return nil
}

// startSnapshotRefresh 周期性重建已缓存的诊断快照
// 有快照说明该住户的床旁屏幕近期活跃，后台刷新让下一次打开立刻是新数据
func (s *BedsideService) startSnapshotRefresh(ctx context.Context) {
	interval := time.Duration(s.config.Bedside.RefreshIntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Starting snapshot refresh loop", zap.Duration("interval", interval))

	// 启动先刷一轮，服务重启后不让屏幕等一个完整周期
	s.refreshActiveSnapshots(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshActiveSnapshots(ctx)
		}
	}
}

// refreshActiveSnapshots 扫描快照键并逐个重建
func (s *BedsideService) refreshActiveSnapshots(ctx context.Context) {
	keys, err := s.kv.ScanKeys(ctx, store.SnapshotKeyPattern())
	if err != nil {
		s.logger.Error("Failed to scan snapshot keys", zap.Error(err))
		return
	}

	refreshed := 0
	for _, key := range keys {
		select {
		case <-ctx.Done():
			return
		default:
		}

		residentID := store.ResidentIDFromSnapshotKey(key)
		if residentID == "" {
			continue
		}

		s.provider.RefreshState(ctx, residentID)
		refreshed++
	}

	if refreshed > 0 {
		s.logger.Debug("Refreshed diagnostic snapshots", zap.Int("resident_count", refreshed))
	}
}

// Stop 停止服务并释放资源
func (s *BedsideService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping bedside service")

	if s.mqttClient != nil {
		if err := s.mqttClient.Unsubscribe(mqtt.AckSubscription); err != nil {
			s.logger.Error("Error unsubscribing from device acks", zap.Error(err))
		}
		s.mqttClient.Disconnect()
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Error closing redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Error closing database connection", zap.Error(err))
		}
	}

	s.logger.Info("Bedside service stopped")
	return nil
}
