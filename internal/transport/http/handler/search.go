package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/feature/search"
	"portfolio-site/internal/service"
	"portfolio-site/internal/transport/http/ez"
)

type SearchHandler struct {
	search *service.SearchService
	clicks *service.ClickTracker
}

func NewSearchHandler(s *service.SearchService, c *service.ClickTracker) *SearchHandler {
	return &SearchHandler{search: s, clicks: c}
}

func (h *SearchHandler) MountAPI(api ez.EZ) {
	type searchIn struct {
		Q      string `form:"q"`
		Query  string `form:"query"`
		Type   string `form:"type"`
		Limit  int    `form:"limit"`
		Offset int    `form:"offset"`
	}
	ez.RegisterAction(api, ez.Action[searchIn, []search.Result]{
		Method: http.MethodGet,
		Path:   "/search",
		Op:     "search.query",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *searchIn) ([]search.Result, error) {
			q := in.Q
			if q == "" {
				q = in.Query
			}
			return h.search.Search(c.Request.Context(), service.SearchRequest{
				Query: q, Type: in.Type, Limit: in.Limit, Offset: in.Offset,
			})
		},
	})

	ez.RegisterAction(api, ez.Action[struct{}, []service.PopularQuery]{
		Method: http.MethodGet,
		Path:   "/search/popular",
		Op:     "search.popular",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]service.PopularQuery, error) {
			return h.search.Popular(c.Request.Context())
		},
	})

	// 字段校验交给 ClickTracker，保证与搜索同一套 key 规则
	type clickIn struct {
		Query         string `json:"query"`
		ClickedResult string `json:"clickedResult"`
		ResultType    string `json:"resultType"`
		ResultID      string `json:"resultId"`
	}
	ez.RegisterAction(api, ez.Action[clickIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/search/track-click",
		Op:     "search.track_click",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *clickIn) (gin.H, error) {
			err := h.clicks.Track(c.Request.Context(), service.ClickRequest{
				Query: in.Query, ClickedResult: in.ClickedResult, ResultType: in.ResultType, ResultID: in.ResultID,
			})
			if err != nil {
				return nil, err
			}
			return gin.H{"success": true}, nil
		},
	})
}
