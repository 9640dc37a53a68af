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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/api/handlers"
	"github.com/langchou/teslaowner/internal/bootstrap"
	"github.com/langchou/teslaowner/internal/config"
	"github.com/langchou/teslaowner/internal/repository"
	"github.com/langchou/teslaowner/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := bootstrap.NewLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting teslaowner bridge", zap.String("port", cfg.ServerPort))
	if err := cfg.Validate(); err != nil {
		logger.Warn("Login will fail until client credentials are configured", zap.Error(err))
	}

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 凭据存储
	storage, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open credential store", zap.Error(err))
	}
	defer storage.Close()

	// 创建 Tesla API 客户端
	teslaClient := bootstrap.NewClient(cfg, logger, registry)

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run(ctx)

	// 创建 HTTP 处理器
	opts := handlers.Options{ViewCacheSize: cfg.ViewCacheSize}
	if cfg.MetricsEnabled {
		opts.Gatherer = registry
	}
	if storage.DB != nil {
		opts.CommandLog = repository.NewCommandLogRepository(storage.DB)
	}
	handler, err := handlers.NewHandler(logger, teslaClient, storage.Store, wsHub, opts)
	if err != nil {
		logger.Fatal("Failed to create handler", zap.Error(err))
	}
	handler.Start(ctx)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止推送和进行中的请求
	cancel()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
