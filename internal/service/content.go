package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"portfolio-site/internal/domain"
)

type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

func newPage[T any](items []T, total int64, offset, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Offset: offset, Limit: limit}
}

// ContentService 公开内容读取；详情页浏览数 +1
type ContentService struct {
	repo domain.ContentRepository
	log  *zap.Logger
}

func NewContentService(repo domain.ContentRepository, l *zap.Logger) *ContentService {
	return &ContentService{repo: repo, log: l}
}

func (s *ContentService) Blogs(ctx context.Context, f domain.ListFilter) (Page[domain.Blog], error) {
	items, total, err := s.repo.ListBlogs(ctx, f)
	if err != nil {
		return Page[domain.Blog]{}, fmt.Errorf("list blogs: %w", err)
	}
	return newPage(items, total, f.Offset, f.Limit), nil
}

func (s *ContentService) Blog(ctx context.Context, slug string) (*domain.Blog, error) {
	b, err := s.repo.BlogBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s.view(ctx, domain.KindBlog, b.ID) {
		b.Views++
	}
	return b, nil
}

func (s *ContentService) Projects(ctx context.Context, f domain.ListFilter) (Page[domain.Project], error) {
	items, total, err := s.repo.ListProjects(ctx, f)
	if err != nil {
		return Page[domain.Project]{}, fmt.Errorf("list projects: %w", err)
	}
	return newPage(items, total, f.Offset, f.Limit), nil
}

func (s *ContentService) Project(ctx context.Context, slug string) (*domain.Project, error) {
	p, err := s.repo.ProjectBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if s.view(ctx, domain.KindProject, p.ID) {
		p.Views++
	}
	return p, nil
}

func (s *ContentService) Tags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, nil
}

func (s *ContentService) Images(ctx context.Context, offset, limit int) (Page[domain.Image], error) {
	items, total, err := s.repo.ListImages(ctx, offset, limit)
	if err != nil {
		return Page[domain.Image]{}, fmt.Errorf("list images: %w", err)
	}
	return newPage(items, total, offset, limit), nil
}

// view 浏览计数失败不影响读取
func (s *ContentService) view(ctx context.Context, k domain.ContentKind, id string) bool {
	err := s.repo.IncrementViews(ctx, k, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("increment views failed", zap.String("op", "content.view"), zap.String("type", string(k)), zap.Error(err))
	}
	return err == nil
}
