package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/domain"
	"portfolio-site/internal/service"
	"portfolio-site/internal/transport/http/ez"
	mdw "portfolio-site/internal/transport/http/middleware"
)

type AdminHandler struct {
	svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler { return &AdminHandler{svc: svc} }

type limitIn struct {
	Limit int `form:"limit" binding:"min=0,max=100"`
}

func (in limitIn) or(def int) int {
	if in.Limit == 0 {
		return def
	}
	return in.Limit
}

type usersIn struct {
	Offset int `form:"offset" binding:"min=0"`
	Limit  int `form:"limit"  binding:"min=0,max=100"`
}

type roleIn struct {
	Role string `json:"role" binding:"required"`
}

// MountAdmin /api/admin/*，分组已要求 ADMIN
func (h *AdminHandler) MountAdmin(admin ez.EZ) {
	ez.RegisterAction(admin, ez.Action[struct{}, domain.ContentCounts]{
		Method: http.MethodGet,
		Path:   "/stats",
		Op:     "admin.stats",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.ContentCounts, error) {
			return h.svc.Stats(c.Request.Context())
		},
	})

	ez.RegisterAction(admin, ez.Action[limitIn, []service.QueryStat]{
		Method: http.MethodGet,
		Path:   "/analytics",
		Op:     "admin.analytics",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *limitIn) ([]service.QueryStat, error) {
			return h.svc.Analytics(c.Request.Context(), in.or(20))
		},
	})

	ez.RegisterAction(admin, ez.Action[limitIn, []domain.SearchHistory]{
		Method: http.MethodGet,
		Path:   "/search-history",
		Op:     "admin.search_history",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *limitIn) ([]domain.SearchHistory, error) {
			return h.svc.History(c.Request.Context(), in.or(50))
		},
	})

	ez.RegisterAction(admin, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/search/popular",
		Op:     "admin.reset_popular",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := h.svc.ResetPopular(c.Request.Context()); err != nil {
				return nil, err
			}
			return gin.H{"success": true}, nil
		},
	})

	ez.RegisterAction(admin, ez.Action[usersIn, service.Page[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Op:     "admin.users",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *usersIn) (service.Page[domain.User], error) {
			limit := in.Limit
			if limit == 0 {
				limit = 20
			}
			return h.svc.Users(c.Request.Context(), in.Offset, limit)
		},
	})

	ez.RegisterAction(admin, ez.Action[roleIn, *domain.User]{
		Method: http.MethodPatch,
		Path:   "/users/:id/role",
		Op:     "admin.set_role",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *roleIn) (*domain.User, error) {
			u, err := h.svc.SetRole(c.Request.Context(), mdw.SessionOf(c), c.Param("id"), in.Role)
			if errors.Is(err, service.ErrSelfDemotion) {
				return nil, ez.BadRequest("You cannot remove your own admin role")
			}
			return u, err
		},
	})
}

// MountUI /admin：未登录重定向由全局 Guard 处理，这里只返回看板数据
func (h *AdminHandler) MountUI(ui ez.EZ) {
	ez.RegisterAction(ui, ez.Action[struct{}, *service.Dashboard]{
		Method: http.MethodGet,
		Path:   "",
		Op:     "admin.dashboard",
		Binder: ez.BindNone,
		Role:   domain.RoleAdmin,
		Handler: func(c *gin.Context, _ *struct{}) (*service.Dashboard, error) {
			return h.svc.Dashboard(c.Request.Context(), mdw.SessionOf(c))
		},
	})
}
