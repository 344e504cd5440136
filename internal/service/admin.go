package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"portfolio-site/internal/core/auth"
	"portfolio-site/internal/core/cache"
	"portfolio-site/internal/domain"
)

type AdminService struct {
	users    domain.UserRepository
	content  domain.ContentRepository
	searches domain.SearchRepository
	cache    *cache.Cache
	log      *zap.Logger
}

func NewAdminService(users domain.UserRepository, content domain.ContentRepository, searches domain.SearchRepository, c *cache.Cache, l *zap.Logger) *AdminService {
	return &AdminService{users: users, content: content, searches: searches, cache: c, log: l}
}

func (s *AdminService) Stats(ctx context.Context) (domain.ContentCounts, error) {
	c, err := s.content.Counts(ctx)
	if err != nil {
		return c, fmt.Errorf("stats: %w", err)
	}
	return c, nil
}

type QueryStat struct {
	Query            string     `json:"query"`
	SearchCount      int64      `json:"searchCount"`
	ClickCount       int64      `json:"clickCount"`
	AvgResults       float64    `json:"avgResults"`
	ClickThroughRate float64    `json:"clickThroughRate"`
	LastSearched     *time.Time `json:"lastSearched"`
}

func (s *AdminService) Analytics(ctx context.Context, limit int) ([]QueryStat, error) {
	rows, err := s.searches.TopQueries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	out := make([]QueryStat, 0, len(rows))
	for _, r := range rows {
		out = append(out, QueryStat{
			Query:            r.Query,
			SearchCount:      r.SearchCount,
			ClickCount:       r.ClickCount,
			AvgResults:       r.AvgResults,
			ClickThroughRate: r.ClickThroughRate(),
			LastSearched:     r.LastSearched,
		})
	}
	return out, nil
}

func (s *AdminService) History(ctx context.Context, limit int) ([]domain.SearchHistory, error) {
	rows, err := s.searches.RecentHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	if rows == nil {
		rows = []domain.SearchHistory{}
	}
	return rows, nil
}

func (s *AdminService) Users(ctx context.Context, offset, limit int) (Page[domain.User], error) {
	items, total, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return Page[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return newPage(items, total, offset, limit), nil
}

// ResetPopular 清掉热门搜索缓存，下次读取回源
func (s *AdminService) ResetPopular(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx, popularCacheKey); err != nil {
		return fmt.Errorf("reset popular: %w", err)
	}
	return nil
}

// SetRole actor 不能撤销自己的 ADMIN，保证至少留有一个管理员入口
func (s *AdminService) SetRole(ctx context.Context, actor *auth.Session, userID, role string) (*domain.User, error) {
	r, ok := domain.ParseRole(role)
	if !ok {
		return nil, domain.Invalid("role", "must be one of PUBLIC, ADMIN")
	}
	if actor != nil && actor.UserID == userID && !auth.IsAdmin(&auth.Session{Role: r}) {
		return nil, ErrSelfDemotion
	}
	if err := s.users.UpdateRole(ctx, userID, r); err != nil {
		return nil, err
	}
	s.log.Info("user role changed", zap.String("uid", userID), zap.String("role", string(r)))
	return s.users.FindByID(ctx, userID)
}

// SetRoleByEmail 供命令行工具使用
func (s *AdminService) SetRoleByEmail(ctx context.Context, email, role string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return s.SetRole(ctx, nil, u.ID, role)
}

type Dashboard struct {
	Counts domain.ContentCounts   `json:"counts"`
	Top    []QueryStat            `json:"topQueries"`
	Recent []domain.SearchHistory `json:"recentSearches"`
	Viewer *auth.Session          `json:"viewer"`
	Cache  bool                   `json:"cacheEnabled"`
}

func (s *AdminService) Dashboard(ctx context.Context, viewer *auth.Session) (*Dashboard, error) {
	counts, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.Analytics(ctx, 5)
	if err != nil {
		return nil, err
	}
	recent, err := s.History(ctx, 10)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Counts: counts, Top: top, Recent: recent, Viewer: viewer, Cache: s.cache.Enabled()}, nil
}
