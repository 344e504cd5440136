package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio-site/internal/core/cache"
	"portfolio-site/internal/domain"
	"portfolio-site/internal/feature/search"
)

// 每类内容取回的候选数，与分页大小无关；offset+limit 超出部分不可达
const maxFetchPerKind = 200

const popularCacheKey = "search:popular"

// recordTimeout 写分析数据使用独立 ctx：客户端断开不影响落库
const recordTimeout = 5 * time.Second

type SearchConfig struct {
	DefaultLimit int
	MaxLimit     int
	PopularTTL   time.Duration
	PopularLimit int
}

type SearchService struct {
	content  domain.ContentRepository
	searches domain.SearchRepository
	cache    *cache.Cache
	log      *zap.Logger
	cfg      SearchConfig
	bounds   search.Bounds
	now      func() time.Time
}

func NewSearchService(content domain.ContentRepository, searches domain.SearchRepository, c *cache.Cache, l *zap.Logger, cfg SearchConfig) *SearchService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.PopularLimit <= 0 {
		cfg.PopularLimit = 10
	}
	if cfg.PopularTTL <= 0 {
		cfg.PopularTTL = time.Minute
	}
	return &SearchService{
		content:  content,
		searches: searches,
		cache:    c,
		log:      l,
		cfg:      cfg,
		bounds:   search.Bounds{DefaultLimit: cfg.DefaultLimit, MaxLimit: cfg.MaxLimit},
		now:      time.Now,
	}
}

type SearchRequest struct {
	Query  string
	Type   string
	Limit  int
	Offset int
}

type parsedSearch struct {
	key  string
	kind *domain.ContentKind
	page search.Page
}

// validate 汇总所有字段错误，一次返回
func (s *SearchService) validate(req SearchRequest) (parsedSearch, error) {
	var (
		p   parsedSearch
		err error
		all domain.ValidationError
	)
	collect := func(e error) {
		var ve *domain.ValidationError
		if errors.As(e, &ve) {
			all.Fields = append(all.Fields, ve.Fields...)
		}
	}
	if p.key, err = search.Key(req.Query); err != nil {
		collect(err)
	}
	if p.kind, err = search.ParseKind("type", req.Type); err != nil {
		collect(err)
	}
	if p.page, err = s.bounds.Paginate(req.Limit, req.Offset); err != nil {
		collect(err)
	}
	if len(all.Fields) > 0 {
		return p, &all
	}
	return p, nil
}

// Search 校验失败返回 *domain.ValidationError，且不触达仓储；仓储错误整体失败，不返回部分结果
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]search.Result, error) {
	p, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	kinds := domain.AllKinds
	if p.kind != nil {
		kinds = []domain.ContentKind{*p.kind}
	}
	parts := make([][]search.Result, len(kinds))
	totals := make([]int64, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		g.Go(func() error {
			rs, n, err := s.fetch(gctx, k, p.key, maxFetchPerKind)
			parts[i], totals[i] = rs, n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("search query failed", zap.String("op", "search.query"), zap.String("key", p.key), zap.Error(err))
		return nil, fmt.Errorf("search: %w", err)
	}

	var (
		all   []search.Result
		total int64
	)
	for i, rs := range parts {
		all = append(all, rs...)
		total += totals[i]
	}
	ranked := search.Merge(all)

	// 结果数取命中总数，与分页大小及单类上限无关
	if err := s.record(ctx, p.key, int(total)); err != nil {
		s.log.Error("search record failed", zap.String("op", "search.record"), zap.String("key", p.key), zap.Error(err))
		return nil, fmt.Errorf("search: record: %w", err)
	}
	searchTotal.WithLabelValues(typeLabel(req.Type)).Inc()
	searchResults.Observe(float64(total))
	return p.page.Slice(ranked), nil
}

// fetch 每类各取排名前 limit 行；各类已按 search.Less 排序，合并后的前缀即全局前缀
func (s *SearchService) fetch(ctx context.Context, k domain.ContentKind, key string, limit int) ([]search.Result, int64, error) {
	var out []search.Result
	switch k {
	case domain.KindProject:
		rows, n, err := s.content.SearchProjects(ctx, key, limit)
		if err != nil {
			return nil, 0, err
		}
		for _, r := range rows {
			out = append(out, search.FromProject(r, key))
		}
		return out, n, nil
	case domain.KindBlog:
		rows, n, err := s.content.SearchBlogs(ctx, key, limit)
		if err != nil {
			return nil, 0, err
		}
		for _, r := range rows {
			out = append(out, search.FromBlog(r, key))
		}
		return out, n, nil
	case domain.KindImage:
		rows, n, err := s.content.SearchImages(ctx, key, limit)
		if err != nil {
			return nil, 0, err
		}
		for _, r := range rows {
			out = append(out, search.FromImage(r, key))
		}
		return out, n, nil
	case domain.KindTag:
		rows, n, err := s.content.SearchTags(ctx, key, limit)
		if err != nil {
			return nil, 0, err
		}
		for _, r := range rows {
			out = append(out, search.FromTag(r, key))
		}
		return out, n, nil
	}
	return nil, 0, nil
}

func (s *SearchService) record(ctx context.Context, key string, results int) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	now := s.now().UTC()
	if err := s.searches.IncrementSearch(ctx, key, results, now); err != nil {
		return err
	}
	return s.searches.AppendHistory(ctx, &domain.SearchHistory{Query: key, ResultCount: results, CreatedAt: now})
}

type PopularQuery struct {
	Query       string  `json:"query"`
	SearchCount int64   `json:"searchCount"`
	ClickCount  int64   `json:"clickCount"`
	AvgResults  float64 `json:"avgResults"`
}

// Popular 热门搜索，Redis 开启时按 PopularTTL 缓存
func (s *SearchService) Popular(ctx context.Context) ([]PopularQuery, error) {
	return cache.GetOrLoadJSON(s.cache, ctx, popularCacheKey, s.cfg.PopularTTL, func(ctx context.Context) ([]PopularQuery, error) {
		rows, err := s.searches.TopQueries(ctx, s.cfg.PopularLimit)
		if err != nil {
			return nil, fmt.Errorf("popular: %w", err)
		}
		out := make([]PopularQuery, 0, len(rows))
		for _, r := range rows {
			out = append(out, PopularQuery{Query: r.Query, SearchCount: r.SearchCount, ClickCount: r.ClickCount, AvgResults: r.AvgResults})
		}
		return out, nil
	})
}
