package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pharmadms/config"
	"pharmadms/internal/api/handler"
	"pharmadms/internal/api/router"
	"pharmadms/internal/repository"
	"pharmadms/internal/service"
	"pharmadms/pkg/database"
	"pharmadms/pkg/jwt"
	applogger "pharmadms/pkg/logger"
	"pharmadms/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("DMS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，分配缓存、限流与 Token 黑名单将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	if rdb != nil && cfg.Redis.CacheTTL > 0 {
		repo.Assignment = repository.NewCachedAssignmentRepo(repo.Assignment, rdb, cfg.Redis.CacheTTL, logger)
	}
	svc := service.NewService(cfg, repo, logger)
	h := handler.NewHandler(cfg, svc)

	// 6. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine, err := router.Setup(cfg, h, jwt.NewVerifier(&cfg.Auth), rdb, logger)
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 7. 启动 HTTP 服务器（优雅关闭）
	// 导入大文件时逐行写库，写超时放宽
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := database.Close(db); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
