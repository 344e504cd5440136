package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"portfolio-site/internal/core/auth"
	"portfolio-site/internal/core/cache"
	"portfolio-site/internal/core/config"
	"portfolio-site/internal/core/mail"
	"portfolio-site/internal/core/server"
	"portfolio-site/internal/core/storage"
	"portfolio-site/internal/domain"
	"portfolio-site/internal/repo"
	"portfolio-site/internal/service"
	"portfolio-site/internal/transport/http/ez"
	"portfolio-site/internal/transport/http/handler"
	mdw "portfolio-site/internal/transport/http/middleware"
)

// Deps 进程级依赖，由 cmd/api 组装；Cache 可为空（未配置 Redis）
type Deps struct {
	Cfg    *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	JWT    *auth.JWTer
	Cache  *cache.Cache
	Store  storage.Store
	Mailer mail.Mailer
}

const (
	maxJSONBody     = 1 << 20
	requestTimeout  = 10 * time.Second
	maxUploadFiles  = 10
	defaultUploadMB = 10
)

func NewAPIEngine(d Deps) *gin.Engine {
	cfg := d.Cfg
	// 非生产环境沿用 GIN_MODE / 默认值
	mode := ""
	if cfg.App.IsProduction() {
		mode = gin.ReleaseMode
	}
	r := server.NewRouter(d.Log, server.Options{Mode: mode, CORSOrigins: cfg.App.HTTP.CORSOrigins})

	uploadMB := cfg.Storage.MaxUploadMB
	if uploadMB <= 0 {
		uploadMB = defaultUploadMB
	}
	guard := auth.NewGuard(auth.GuardConfig{
		SignInPath: cfg.Auth.SignInPath,
		DeniedPath: cfg.Auth.DeniedPath,
		PublicAPI:  cfg.Auth.PublicAPI,
	})

	// 中间件：顺序即执行顺序，Guard 必须在 Session 之后
	r.Use(
		mdw.RequestID(),
		mdw.SecurityHeaders(cfg.App.IsProduction()),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
		mdw.RateLimit(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
		mdw.ConcurrencyLimit(cfg.RateLimit.MaxConcurrency),
		mdw.MaxBodyBytes(maxJSONBody, int64(uploadMB*maxUploadFiles+1)<<20),
		mdw.Timeout(requestTimeout),
		mdw.Session(d.JWT, cfg.Auth.CookieName),
		mdw.Guard(guard),
	)

	// 健康检查 & 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Storage.UploadDir != "" && cfg.Storage.PublicURL != "" {
		r.Static(cfg.Storage.PublicURL, cfg.Storage.UploadDir)
	}

	// 仓储 & 服务
	users := repo.NewUserRepo(d.DB)
	tokens := repo.NewTokenRepo(d.DB)
	content := repo.NewContentRepo(d.DB)
	searches := repo.NewSearchRepo(d.DB)

	authSvc := service.NewAuthService(users, tokens, d.JWT, d.Mailer, d.Log, service.AuthConfig{
		ResetTTL:     time.Duration(cfg.Auth.ResetTokenTTLMin) * time.Minute,
		ResetBaseURL: cfg.Auth.ResetBaseURL,
	})
	searchSvc := service.NewSearchService(content, searches, d.Cache, d.Log, service.SearchConfig{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		PopularTTL:   time.Duration(cfg.Search.PopularTTLSec) * time.Second,
		PopularLimit: cfg.Search.PopularLimit,
	})
	clicks := service.NewClickTracker(content, searches, d.Log)
	contentSvc := service.NewContentService(content, d.Log)
	adminSvc := service.NewAdminService(users, content, searches, d.Cache, d.Log)

	sensitive := mdw.RedisRateLimit(d.Cache.Client(), d.Log, cfg.RateLimit.AuthMax, time.Duration(cfg.RateLimit.AuthWindowSec)*time.Second)

	// 模块注册
	var reg Registry
	reg.Register(
		handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Domain: cfg.Auth.CookieDomain,
			Secure: cfg.App.IsProduction(),
			MaxAge: int(d.JWT.TTL.Seconds()),
		}, sensitive),
		handler.NewSearchHandler(searchSvc, clicks),
		handler.NewContentHandler(contentSvc),
		handler.NewContentAdmin(d.DB),
		handler.NewAdminHandler(adminSvc),
	)
	if d.Store != nil {
		reg.Register(handler.NewUploadHandler(service.NewMediaService(content, d.Store, d.Log)))
	}

	api := ez.New(r.Group("/api"), d.Log, guard)
	// /api/admin 下 GET 也要求 ADMIN；先于 /api 挂载
	reg.MountAdmin(api.Group("/admin", mdw.RequireRole(guard, domain.RoleAdmin)))
	reg.MountAPI(api)
	reg.MountUI(ez.New(r.Group("/admin"), d.Log, guard))

	return r
}
