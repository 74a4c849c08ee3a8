package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "payment-service/internal/domain/payment" // 注册支付模块
	"payment-service/internal/pkg/config"
	"payment-service/internal/pkg/middleware"
	"payment-service/internal/pkg/registry"
	"payment-service/pkg/database"
	"payment-service/pkg/logger"
	"payment-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. 基础设施初始化
	config.LoadConfig()
	logger.InitLogger(config.GlobalConfig.App.Debug)
	defer logger.Sync()
	metrics.Init()

	db := database.InitDatabase()
	rdb := database.InitRedis()

	// 2. HTTP 引擎
	gin.SetMode(config.GlobalConfig.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.LoggerMiddleware(), middleware.RateLimitMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 3. 模块初始化（后台任务挂在进程级 ctx 上，收到信号统一退出）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := registry.InitModules(&registry.ModuleContext{
		Ctx:    ctx,
		DB:     db,
		Redis:  rdb,
		Router: r,
	}); err != nil {
		logger.Log.Fatal("Failed to init modules", zap.Error(err))
	}

	// 4. 启动服务
	srv := &http.Server{
		Addr:    ":" + config.GlobalConfig.Server.Port,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()
	logger.Log.Info("Payment service started", zap.String("port", config.GlobalConfig.Server.Port))

	// 5. 优雅退出
	<-ctx.Done()
	logger.Log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}
}
