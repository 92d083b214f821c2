package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/wattgazer/internal/api/devicesvc"
	"github.com/langchou/wattgazer/internal/api/handlers"
	"github.com/langchou/wattgazer/internal/config"
	"github.com/langchou/wattgazer/internal/logger"
	"github.com/langchou/wattgazer/internal/middleware"
	"github.com/langchou/wattgazer/internal/repository"
	"github.com/langchou/wattgazer/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log := logger.New(cfg.Debug)
	defer log.Sync()

	log.Info("Starting Auth Service", zap.String("port", cfg.AuthPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migrated successfully")

	// 创建组件
	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTDuration)
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	deviceSvc := devicesvc.NewClient(cfg.TelemetryServiceURL, log)

	handler := handlers.NewAuthHandler(log, userRepo, authService, limiter, deviceSvc)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.AuthPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
