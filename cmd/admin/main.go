// admin 命令行：按邮箱设置用户角色，用于首个管理员之后的授权
//
//	go run ./cmd/admin -email someone@example.com -role ADMIN
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"portfolio-site/internal/core/config"
	"portfolio-site/internal/core/database"
	"portfolio-site/internal/core/logger"
	"portfolio-site/internal/repo"
	"portfolio-site/internal/service"
)

func main() {
	email := flag.String("email", "", "user email")
	role := flag.String("role", "ADMIN", "PUBLIC | ADMIN")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, false)
	defer cleanup()

	if *email == "" {
		log.Fatal("-email is required")
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       1,
		MaxIdleConns:       1,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	svc := service.NewAdminService(repo.NewUserRepo(db), repo.NewContentRepo(db), repo.NewSearchRepo(db), nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, err := svc.SetRoleByEmail(ctx, *email, *role)
	if err != nil {
		log.Fatal("set role failed", zap.String("email", *email), zap.Error(err))
	}
	log.Info("role updated", zap.String("email", u.Email), zap.String("role", string(u.Role)))
}
