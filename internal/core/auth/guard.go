package auth

import (
	"net/http"
	"net/url"
	"strings"

	"portfolio-site/internal/domain"
)

type Outcome int

const (
	Allow Outcome = iota
	RedirectSignIn
	RedirectDenied
	Unauthorized
	Forbidden
)

type Decision struct {
	Outcome  Outcome
	Location string // 仅重定向时有值
	Message  string // 仅 401/403 时有值
}

type GuardConfig struct {
	SignInPath string
	DeniedPath string
	// PublicAPI 精确路径；非 GET 也不要求会话
	PublicAPI []string
}

// Guard 根据路径、方法、会话判定是否放行；是系统里唯一比较角色的地方
type Guard struct {
	cfg    GuardConfig
	public map[string]struct{}
}

var (
	authPrefixes     = []string{"/auth", "/api/auth"}
	adminUIPrefix    = "/admin"
	apiPrefix        = "/api"
	adminAPIPrefixes = []string{"/api/admin", "/api/projects", "/api/blogs", "/api/tags", "/api/upload"}
)

func NewGuard(cfg GuardConfig) *Guard {
	if cfg.SignInPath == "" {
		cfg.SignInPath = "/auth/signin"
	}
	if cfg.DeniedPath == "" {
		cfg.DeniedPath = "/auth/access-denied"
	}
	g := &Guard{cfg: cfg, public: map[string]struct{}{}}
	for _, p := range cfg.PublicAPI {
		g.public[strings.TrimSuffix(p, "/")] = struct{}{}
	}
	return g
}

// under 按路径段匹配：/api/blogs 命中 /api/blogs 与 /api/blogs/x，不命中 /api/blogsx
func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func underAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if under(path, p) {
			return true
		}
	}
	return false
}

func IsAdmin(s *Session) bool { return s != nil && s.Role == domain.RoleAdmin }

// Evaluate 规则按顺序匹配；只看会话有无与角色，不关心资源是否存在
func (g *Guard) Evaluate(method, path, rawQuery string, s *Session) Decision {
	switch {
	case underAny(path, authPrefixes):
		return Decision{Outcome: Allow}

	case under(path, adminUIPrefix):
		if s == nil {
			return Decision{Outcome: RedirectSignIn, Location: g.signInURL(path, rawQuery)}
		}
		if !IsAdmin(s) {
			return Decision{Outcome: RedirectDenied, Location: g.cfg.DeniedPath}
		}
		return Decision{Outcome: Allow}

	case under(path, apiPrefix) && method != http.MethodGet && method != http.MethodHead && method != http.MethodOptions:
		if _, ok := g.public[strings.TrimSuffix(path, "/")]; ok {
			return Decision{Outcome: Allow}
		}
		if s == nil {
			return Decision{Outcome: Unauthorized, Message: "Unauthorized"}
		}
		if underAny(path, adminAPIPrefixes) && !IsAdmin(s) {
			return Decision{Outcome: Forbidden, Message: "Forbidden: admin access required"}
		}
		return Decision{Outcome: Allow}
	}
	return Decision{Outcome: Allow}
}

// Require 供具体 handler 使用（如 GET /api/admin/*），与 Evaluate 同一套 401/403 语义
func (g *Guard) Require(s *Session, role domain.Role) Decision {
	if s == nil {
		return Decision{Outcome: Unauthorized, Message: "Unauthorized"}
	}
	if role == domain.RoleAdmin && !IsAdmin(s) {
		return Decision{Outcome: Forbidden, Message: "Forbidden: admin access required"}
	}
	return Decision{Outcome: Allow}
}

func (g *Guard) signInURL(path, rawQuery string) string {
	cb := path
	if rawQuery != "" {
		cb += "?" + rawQuery
	}
	return g.cfg.SignInPath + "?callbackUrl=" + url.QueryEscape(cb)
}
