package handler

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio-site/internal/domain"
	"portfolio-site/internal/transport/http/ez"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func checkSlug(slug string) error {
	if !slugRe.MatchString(slug) {
		return domain.Invalid("slug", "must contain only lowercase letters, digits and single hyphens")
	}
	return nil
}

// publishedAt 首次发布时打时间戳，之后保持；撤回发布时清空
func publishedAt(published bool, incoming, existing *time.Time) *time.Time {
	if !published {
		return nil
	}
	if existing != nil {
		return existing
	}
	if incoming != nil {
		return incoming
	}
	now := time.Now().UTC()
	return &now
}

// replaceTags 只按 id 关联已存在的标签，不会顺带创建或修改标签
func replaceTags(tx *gorm.DB, owner any, tags []domain.Tag) error {
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	var found []domain.Tag
	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
			return err
		}
		if len(found) != len(ids) {
			return domain.Invalid("tags", "contains unknown tag ids")
		}
	}
	return tx.Model(owner).Omit("Tags.*").Association("Tags").Replace(found)
}

// ContentAdmin 博客、项目、标签的后台写接口（通用 CRUD）
type ContentAdmin struct {
	db *gorm.DB
	// 由 MountAdmin 记录，MountAPI 时一并注册后台读接口；router 先挂 admin 再挂 api
	admin *ez.EZ
}

func NewContentAdmin(db *gorm.DB) *ContentAdmin { return &ContentAdmin{db: db} }

func (h *ContentAdmin) MountAdmin(admin ez.EZ) { h.admin = &admin }

func (h *ContentAdmin) MountAPI(api ez.EZ) {
	ez.Crud(ez.CrudConfig[domain.Blog]{
		DB:         h.db,
		Write:      api,
		Read:       h.admin,
		Path:       "/blogs",
		Name:       "blog",
		New:        func() *domain.Blog { return &domain.Blog{} },
		OwnerField: "AuthorID",
		Immutable:  []string{"Views"},
		Hooks: ez.CrudHooks[domain.Blog]{
			BeforeSave: func(_ *gin.Context, m, existing *domain.Blog) error {
				var prev *time.Time
				if existing != nil {
					prev = existing.PublishedAt
				}
				m.PublishedAt = publishedAt(m.Published, m.PublishedAt, prev)
				return checkSlug(m.Slug)
			},
			AfterSave: func(_ *gin.Context, tx *gorm.DB, m *domain.Blog) error {
				return replaceTags(tx, m, m.Tags)
			},
		},
	})

	ez.Crud(ez.CrudConfig[domain.Project]{
		DB:         h.db,
		Write:      api,
		Read:       h.admin,
		Path:       "/projects",
		Name:       "project",
		New:        func() *domain.Project { return &domain.Project{} },
		OwnerField: "AuthorID",
		Immutable:  []string{"Views"},
		Hooks: ez.CrudHooks[domain.Project]{
			BeforeSave: func(_ *gin.Context, m, _ *domain.Project) error { return checkSlug(m.Slug) },
			AfterSave: func(_ *gin.Context, tx *gorm.DB, m *domain.Project) error {
				return replaceTags(tx, m, m.Tags)
			},
		},
	})

	ez.Crud(ez.CrudConfig[domain.Tag]{
		DB:      h.db,
		Write:   api,
		Read:    h.admin,
		Path:    "/tags",
		Name:    "tag",
		New:     func() *domain.Tag { return &domain.Tag{} },
		OrderBy: "name ASC",
		Hooks: ez.CrudHooks[domain.Tag]{
			BeforeSave: func(_ *gin.Context, m, _ *domain.Tag) error { return checkSlug(m.Slug) },
			BeforeDelete: func(_ *gin.Context, tx *gorm.DB, id string) error {
				for _, join := range []string{"blog_tags", "project_tags", "image_tags"} {
					if err := tx.Exec("DELETE FROM "+join+" WHERE tag_id = ?", id).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	})
}
