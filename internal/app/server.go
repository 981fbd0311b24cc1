package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IkNhayatk/RoutinInspection-backend/internal/api/router"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/config"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/database"
	"github.com/IkNhayatk/RoutinInspection-backend/pkg/logger"
	pkgredis "github.com/IkNhayatk/RoutinInspection-backend/pkg/redis"
)

// StartServer 启动 HTTP 服务并阻塞等待退出信号
func StartServer(cfg *config.Config, handlers *Handlers, services *Services) {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Setup(
		handlers.Form,
		handlers.Route,
		handlers.Auth,
		handlers.User,
		services.Auth,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.APIPort)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	printStartupBanner(cfg)

	// Start HTTP server in goroutine
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Infof("\nShutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("  → Stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Infof("  Warning: HTTP server shutdown error: %v", err)
	} else {
		logger.Infof("  ✓ HTTP server stopped")
	}

	logger.Infof("  → Closing database...")
	database.Close()
	logger.Infof("  ✓ Database closed")

	if cfg.Redis.Enabled {
		logger.Infof("  → Closing Redis...")
		pkgredis.Close()
		logger.Infof("  ✓ Redis closed")
	}

	logger.Infof("Shutdown complete")
	logger.Sync()
}

// printStartupBanner 打印启动横幅
func printStartupBanner(cfg *config.Config) {
	logger.Infof("")
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("RoutinInspection Backend - 巡检管理服务")
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("")
	logger.Infof("Features:")
	logger.Infof("   • Dynamic Form Schema - JSON 表单定义直接映射为数据表")
	logger.Infof("   • Additive Column Sync - 表单修订只增列，不删历史数据")
	logger.Infof("   • Archive on Delete - 删除即归档，巡检记录永不丢失")
	logger.Infof("   • Route & User Management - 巡检路线与人员管理")
	logger.Infof("")
	logger.Infof("Listening on :%d (mode: %s)", cfg.Server.APIPort, cfg.Server.Mode)
	if cfg.Redis.Enabled {
		logger.Infof("Distributed table locks: enabled (redis)")
	} else {
		logger.Infof("Distributed table locks: disabled (in-process)")
	}
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("")
}
