package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio-site/internal/domain"
)

type ContentRepo struct{ db *gorm.DB }

func NewContentRepo(db *gorm.DB) *ContentRepo { return &ContentRepo{db: db} }

// taggedIDs 子查询：标签名命中的内容 id（join 表按 gorm many2many 默认命名）
func (r *ContentRepo) taggedIDs(join, fk, pat string) *gorm.DB {
	return r.db.Table(join).
		Select(join+"."+fk).
		Joins("JOIN tags ON tags.id = "+join+".tag_id").
		Where("LOWER(tags.name) LIKE ? ESCAPE '!'", pat)
}

// matchSpec 描述一类内容的命中列与排序列；排序与 search.Less 一致：层级、置顶、日期倒序、id
type matchSpec struct {
	title    string
	body     string // 为空表示无正文列
	join, fk string // 为空表示无标签关联
	featured bool
	date     string
}

func (m matchSpec) where(r *ContentRepo, pat string) (string, []any) {
	sql, vars := "LOWER("+m.title+") LIKE ? ESCAPE '!'", []any{pat}
	if m.body != "" {
		sql += " OR LOWER(" + m.body + ") LIKE ? ESCAPE '!'"
		vars = append(vars, pat)
	}
	if m.join != "" {
		sql += " OR id IN (?)"
		vars = append(vars, r.taggedIDs(m.join, m.fk, pat))
	}
	return "(" + sql + ")", vars
}

func (m matchSpec) order(term, pat string) clause.OrderBy {
	sql := "CASE WHEN LOWER(TRIM(" + m.title + ")) = ? THEN 0 WHEN LOWER(" + m.title + ") LIKE ? ESCAPE '!' THEN 1"
	vars := []any{term, pat}
	if m.body != "" {
		sql += " WHEN LOWER(" + m.body + ") LIKE ? ESCAPE '!' THEN 2"
		vars = append(vars, pat)
	}
	sql += " ELSE 3 END"
	if m.featured {
		sql += ", featured DESC"
	}
	sql += ", " + m.date + " DESC, id ASC"
	return clause.OrderBy{Expression: clause.Expr{SQL: sql, Vars: vars, WithoutParentheses: true}}
}

// search 返回按排名截断的前 limit 行及命中总数
func (r *ContentRepo) search(ctx context.Context, model, out any, m matchSpec, published bool, term string, limit int) (int64, error) {
	pat := likePattern(term)
	cond, vars := m.where(r, pat)
	q := r.db.WithContext(ctx).Model(model).Where(cond, vars...)
	if published {
		q = q.Where("published = ?", true)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	if m.join != "" {
		q = q.Preload("Tags")
	}
	return total, q.Clauses(m.order(term, pat)).Limit(limit).Find(out).Error
}

func (r *ContentRepo) SearchProjects(ctx context.Context, term string, limit int) ([]domain.Project, int64, error) {
	var out []domain.Project
	total, err := r.search(ctx, &domain.Project{}, &out, matchSpec{
		title: "title", body: "description", join: "project_tags", fk: "project_id",
		featured: true, date: "created_at",
	}, true, term, limit)
	return out, total, err
}

func (r *ContentRepo) SearchBlogs(ctx context.Context, term string, limit int) ([]domain.Blog, int64, error) {
	var out []domain.Blog
	total, err := r.search(ctx, &domain.Blog{}, &out, matchSpec{
		title: "title", body: "excerpt", join: "blog_tags", fk: "blog_id",
		featured: true, date: "COALESCE(published_at, created_at)",
	}, true, term, limit)
	return out, total, err
}

// SearchImages 图片无发布状态；alt 为标题列
func (r *ContentRepo) SearchImages(ctx context.Context, term string, limit int) ([]domain.Image, int64, error) {
	var out []domain.Image
	total, err := r.search(ctx, &domain.Image{}, &out, matchSpec{
		title: "alt", body: "caption", join: "image_tags", fk: "image_id", date: "created_at",
	}, false, term, limit)
	return out, total, err
}

func (r *ContentRepo) SearchTags(ctx context.Context, term string, limit int) ([]domain.Tag, int64, error) {
	var out []domain.Tag
	total, err := r.search(ctx, &domain.Tag{}, &out, matchSpec{title: "name", date: "created_at"}, false, term, limit)
	return out, total, err
}

func (r *ContentRepo) IncrementViews(ctx context.Context, kind domain.ContentKind, id string) error {
	var model any
	switch kind {
	case domain.KindBlog:
		model = &domain.Blog{}
	case domain.KindProject:
		model = &domain.Project{}
	default:
		return fmt.Errorf("increment views: %s has no view counter", kind)
	}
	res := r.db.WithContext(ctx).Model(model).Where("id = ? AND published = ?", id, true).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ContentRepo) scopeList(q *gorm.DB, join, fk string, f domain.ListFilter) *gorm.DB {
	q = q.Where("published = ?", true)
	if f.FeaturedOnly {
		q = q.Where("featured = ?", true)
	}
	if f.Tag != "" {
		sub := r.db.Table(join).Select(join+"."+fk).
			Joins("JOIN tags ON tags.id = "+join+".tag_id").
			Where("tags.slug = ?", f.Tag)
		q = q.Where("id IN (?)", sub)
	}
	return q
}

func (r *ContentRepo) ListBlogs(ctx context.Context, f domain.ListFilter) ([]domain.Blog, int64, error) {
	q := r.scopeList(r.db.WithContext(ctx).Model(&domain.Blog{}), "blog_tags", "blog_id", f).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Blog
	err := q.Preload("Tags").
		Order("featured DESC").Order("created_at DESC").Order("id ASC").
		Offset(f.Offset).Limit(f.Limit).Find(&out).Error
	return out, total, err
}

func (r *ContentRepo) BlogBySlug(ctx context.Context, slug string) (*domain.Blog, error) {
	var b domain.Blog
	err := r.db.WithContext(ctx).Preload("Tags").
		Where("slug = ? AND published = ?", slug, true).First(&b).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r *ContentRepo) ListProjects(ctx context.Context, f domain.ListFilter) ([]domain.Project, int64, error) {
	q := r.scopeList(r.db.WithContext(ctx).Model(&domain.Project{}), "project_tags", "project_id", f).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Project
	err := q.Preload("Tags").
		Order("featured DESC").Order("created_at DESC").Order("id ASC").
		Offset(f.Offset).Limit(f.Limit).Find(&out).Error
	return out, total, err
}

func (r *ContentRepo) ProjectBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	var p domain.Project
	err := r.db.WithContext(ctx).Preload("Tags").
		Where("slug = ? AND published = ?", slug, true).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ContentRepo) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var out []domain.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *ContentRepo) ListImages(ctx context.Context, offset, limit int) ([]domain.Image, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Image{}).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Image
	err := q.Preload("Tags").Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

func (r *ContentRepo) CreateImage(ctx context.Context, img *domain.Image) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *ContentRepo) Counts(ctx context.Context) (domain.ContentCounts, error) {
	var c domain.ContentCounts
	db := r.db.WithContext(ctx)
	for _, it := range []struct {
		model any
		dst   *int64
	}{
		{&domain.User{}, &c.Users},
		{&domain.Blog{}, &c.Blogs},
		{&domain.Project{}, &c.Projects},
		{&domain.Image{}, &c.Images},
		{&domain.Tag{}, &c.Tags},
		{&domain.SearchHistory{}, &c.Searches},
	} {
		if err := db.Model(it.model).Count(it.dst).Error; err != nil {
			return c, err
		}
	}
	return c, nil
}
