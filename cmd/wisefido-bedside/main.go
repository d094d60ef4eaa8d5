package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	"wisefido-bedside/internal/config"
	"wisefido-bedside/internal/logger"
	"wisefido-bedside/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 加载 .env（仅本地开发；生产环境由部署平台注入环境变量）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-bedside")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting wisefido-bedside service")

	// 创建服务
	svc, err := service.NewBedsideService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create bedside service", zap.Error(err))
	}

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务（房间预热、ack 订阅、快照刷新）
	if err := svc.Start(ctx); err != nil {
		log.Fatal("Failed to start bedside service", zap.Error(err))
	}

	// 启动 HTTP 服务（在 goroutine 中）
	srv := service.NewServer(cfg, svc.Handler(), log)
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 等待信号或错误
	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		log.Error("HTTP server error", zap.Error(err))
	}
	cancel()

	// 先停 HTTP 入口，再停后台服务
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", zap.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping bedside service", zap.Error(err))
	}

	log.Info("Service stopped")
}
