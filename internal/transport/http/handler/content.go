package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/domain"
	"portfolio-site/internal/service"
	"portfolio-site/internal/transport/http/ez"
)

type ContentHandler struct {
	svc *service.ContentService
}

func NewContentHandler(svc *service.ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

type listIn struct {
	Offset   int    `form:"offset"   binding:"min=0"`
	Limit    int    `form:"limit"    binding:"min=0,max=100"`
	Tag      string `form:"tag"      binding:"max=64"`
	Featured bool   `form:"featured"`
}

func (in listIn) filter() domain.ListFilter {
	limit := in.Limit
	if limit == 0 {
		limit = 20
	}
	return domain.ListFilter{Offset: in.Offset, Limit: limit, Tag: in.Tag, FeaturedOnly: in.Featured}
}

func (h *ContentHandler) MountAPI(api ez.EZ) {
	ez.RegisterAction(api, ez.Action[listIn, service.Page[domain.Blog]]{
		Method: http.MethodGet,
		Path:   "/blogs",
		Op:     "content.blogs",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listIn) (service.Page[domain.Blog], error) {
			return h.svc.Blogs(c.Request.Context(), in.filter())
		},
	})
	ez.RegisterAction(api, ez.Action[struct{}, *domain.Blog]{
		Method: http.MethodGet,
		Path:   "/blogs/:slug",
		Op:     "content.blog",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Blog, error) {
			return h.svc.Blog(c.Request.Context(), c.Param("slug"))
		},
	})

	ez.RegisterAction(api, ez.Action[listIn, service.Page[domain.Project]]{
		Method: http.MethodGet,
		Path:   "/projects",
		Op:     "content.projects",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listIn) (service.Page[domain.Project], error) {
			return h.svc.Projects(c.Request.Context(), in.filter())
		},
	})
	ez.RegisterAction(api, ez.Action[struct{}, *domain.Project]{
		Method: http.MethodGet,
		Path:   "/projects/:slug",
		Op:     "content.project",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Project, error) {
			return h.svc.Project(c.Request.Context(), c.Param("slug"))
		},
	})

	ez.RegisterAction(api, ez.Action[struct{}, []domain.Tag]{
		Method: http.MethodGet,
		Path:   "/tags",
		Op:     "content.tags",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Tag, error) {
			return h.svc.Tags(c.Request.Context())
		},
	})

	ez.RegisterAction(api, ez.Action[listIn, service.Page[domain.Image]]{
		Method: http.MethodGet,
		Path:   "/images",
		Op:     "content.images",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *listIn) (service.Page[domain.Image], error) {
			f := in.filter()
			return h.svc.Images(c.Request.Context(), f.Offset, f.Limit)
		},
	})
}
