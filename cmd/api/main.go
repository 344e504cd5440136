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

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"portfolio-site/internal/core/auth"
	"portfolio-site/internal/core/cache"
	"portfolio-site/internal/core/config"
	"portfolio-site/internal/core/database"
	"portfolio-site/internal/core/logger"
	"portfolio-site/internal/core/mail"
	"portfolio-site/internal/core/server"
	"portfolio-site/internal/core/storage"
	"portfolio-site/internal/repo"
	"portfolio-site/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	// 标准库 log（gorm 默认 logger 等）也进 zap
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	defer func() { _ = database.Close(db) }()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := repo.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// Redis 可选；连不上只告警，缓存与限流自动降级
	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = c.Close() }()
	if c.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := c.Ping(ctx); err != nil {
			log.Warn("redis unreachable, falling back to database", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
		cancel()
	}

	store, err := storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.PublicURL, int64(cfg.Storage.MaxUploadMB)<<20)
	if err != nil {
		log.Fatal("upload dir", zap.Error(err))
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	r := router.NewAPIEngine(router.Deps{
		Cfg:    cfg,
		Log:    log,
		DB:     db,
		JWT:    jwter,
		Cache:  c,
		Store:  store,
		Mailer: mail.LogMailer{Log: log},
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("site api starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.String("admin", baseURL+"/admin"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("site api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("site api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
