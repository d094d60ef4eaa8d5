package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wisefido-bedside/internal/config"

	"go.uber.org/zap"
)

// Server HTTP 服务封装
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer 创建 HTTP 服务（超时来自配置）
func NewServer(cfg *config.Config, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}
	return &Server{httpServer: s, logger: logger}
}

func (s *Server) Start() error {
	s.logger.Info("Starting wisefido-bedside HTTP server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping wisefido-bedside HTTP server")
	return s.httpServer.Shutdown(ctx)
}
