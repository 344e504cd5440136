package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	CORSOrigins     []string `mapstructure:"cors_origins"`
}

type App struct {
	Name string
	Env  string // development / production
	HTTP HTTP
}

// IsProduction 仅 production 下下发 HSTS、cookie Secure
func (a App) IsProduction() bool { return strings.EqualFold(a.Env, "production") }

type FileRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age_days"`
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate FileRotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int `mapstructure:"access_token_ttl_min"`
}

type Auth struct {
	CookieName       string   `mapstructure:"cookie_name"`
	CookieDomain     string   `mapstructure:"cookie_domain"`
	SignInPath       string   `mapstructure:"sign_in_path"`
	DeniedPath       string   `mapstructure:"denied_path"`
	ResetTokenTTLMin int      `mapstructure:"reset_token_ttl_min"`
	ResetBaseURL     string   `mapstructure:"reset_base_url"`
	PublicAPI        []string `mapstructure:"public_api"` // 非 GET 也无需登录的 API（精确路径）
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

type Search struct {
	DefaultLimit  int `mapstructure:"default_limit"`
	MaxLimit      int `mapstructure:"max_limit"`
	PopularTTLSec int `mapstructure:"popular_ttl_sec"`
	PopularLimit  int `mapstructure:"popular_limit"`
}

type Storage struct {
	UploadDir   string `mapstructure:"upload_dir"`
	PublicURL   string `mapstructure:"public_url"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

type RateLimit struct {
	RPS            float64
	Burst          int
	AuthWindowSec  int   `mapstructure:"auth_window_sec"`
	AuthMax        int   `mapstructure:"auth_max"`
	MaxConcurrency int64 `mapstructure:"max_concurrency"`
}

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	Auth      Auth
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	Search    Search
	Storage   Storage
	RateLimit RateLimit `mapstructure:"ratelimit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "portfolio-site")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)

	v.SetDefault("log.level", "info")

	v.SetDefault("jwt.issuer", "portfolio-site")
	v.SetDefault("jwt.access_token_ttl_min", 60*24*7)

	v.SetDefault("auth.cookie_name", "session")
	v.SetDefault("auth.sign_in_path", "/auth/signin")
	v.SetDefault("auth.denied_path", "/auth/access-denied")
	v.SetDefault("auth.reset_token_ttl_min", 60)
	v.SetDefault("auth.reset_base_url", "http://127.0.0.1:8080/auth/reset-password")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "file:portfolio.db?_foreign_keys=on")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("db.log_level", "warn")

	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.max_limit", 50)
	v.SetDefault("search.popular_ttl_sec", 60)
	v.SetDefault("search.popular_limit", 10)

	v.SetDefault("storage.upload_dir", "./uploads")
	v.SetDefault("storage.public_url", "/uploads")
	v.SetDefault("storage.max_upload_mb", 10)

	v.SetDefault("ratelimit.rps", 200)
	v.SetDefault("ratelimit.burst", 400)
	v.SetDefault("ratelimit.auth_window_sec", 60)
	v.SetDefault("ratelimit.auth_max", 10)
	v.SetDefault("ratelimit.max_concurrency", 300)
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	if err := c.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return &c
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return errors.New("db.driver must be one of postgres|mysql|sqlite")
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return errors.New("search.max_limit must be >= search.default_limit")
	}
	return nil
}
