package domain

import (
	"context"
	"time"
)

// ContentKind 搜索结果 / 点击上报的内容类型
type ContentKind string

const (
	KindProject ContentKind = "project"
	KindBlog    ContentKind = "blog"
	KindImage   ContentKind = "image"
	KindTag     ContentKind = "tag"
)

var AllKinds = []ContentKind{KindProject, KindBlog, KindImage, KindTag}

func ParseKind(s string) (ContentKind, bool) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// HasViews 只有 project / blog 带浏览计数
func (k ContentKind) HasViews() bool { return k == KindProject || k == KindBlog }

type Tag struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name" binding:"required,max=64"`
	Slug      string    `gorm:"uniqueIndex;size:64;not null" json:"slug" binding:"required,max=64"`
	CreatedAt time.Time `json:"createdAt"`
}

type Blog struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Slug        string     `gorm:"uniqueIndex;size:191;not null" json:"slug" binding:"required,max=191"`
	Title       string     `gorm:"size:200;not null" json:"title" binding:"required,max=200"`
	Excerpt     string     `gorm:"type:text" json:"excerpt"`
	Content     string     `gorm:"type:text" json:"content"`
	CoverImage  string     `gorm:"size:500" json:"coverImage"`
	Published   bool       `gorm:"index;not null;default:false" json:"published"`
	Featured    bool       `gorm:"not null;default:false" json:"featured"`
	Views       int64      `gorm:"not null;default:0" json:"views"`
	AuthorID    string     `gorm:"size:36;index" json:"authorId"`
	Tags        []Tag      `gorm:"many2many:blog_tags" json:"tags"`
	PublishedAt *time.Time `json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Slug        string    `gorm:"uniqueIndex;size:191;not null" json:"slug" binding:"required,max=191"`
	Title       string    `gorm:"size:200;not null" json:"title" binding:"required,max=200"`
	Description string    `gorm:"type:text" json:"description"`
	Content     string    `gorm:"type:text" json:"content"`
	CoverImage  string    `gorm:"size:500" json:"coverImage"`
	DemoURL     string    `gorm:"size:500" json:"demoUrl"`
	RepoURL     string    `gorm:"size:500" json:"repoUrl"`
	Published   bool      `gorm:"index;not null;default:false" json:"published"`
	Featured    bool      `gorm:"not null;default:false" json:"featured"`
	Views       int64     `gorm:"not null;default:0" json:"views"`
	AuthorID    string    `gorm:"size:36;index" json:"authorId"`
	Tags        []Tag     `gorm:"many2many:project_tags" json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Image 画廊图片，公开可见
type Image struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	Alt       string    `gorm:"size:255" json:"alt"`
	Caption   string    `gorm:"size:500" json:"caption"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Tags      []Tag     `gorm:"many2many:image_tags" json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListFilter struct {
	Offset       int
	Limit        int
	Tag          string // tag slug
	FeaturedOnly bool
}

type ContentCounts struct {
	Users    int64 `json:"users"`
	Blogs    int64 `json:"blogs"`
	Projects int64 `json:"projects"`
	Images   int64 `json:"images"`
	Tags     int64 `json:"tags"`
	Searches int64 `json:"searches"`
}

// ContentRepository 只暴露公开读、计数与原子计数器；后台写走通用 CRUD
type ContentRepository interface {
	// Search* 按排名返回前 limit 行，另返回命中总数
	SearchProjects(ctx context.Context, term string, limit int) ([]Project, int64, error)
	SearchBlogs(ctx context.Context, term string, limit int) ([]Blog, int64, error)
	SearchImages(ctx context.Context, term string, limit int) ([]Image, int64, error)
	SearchTags(ctx context.Context, term string, limit int) ([]Tag, int64, error)

	// IncrementViews 原子 +1；行不存在或未发布返回 ErrNotFound
	IncrementViews(ctx context.Context, kind ContentKind, id string) error

	ListBlogs(ctx context.Context, f ListFilter) ([]Blog, int64, error)
	BlogBySlug(ctx context.Context, slug string) (*Blog, error)
	ListProjects(ctx context.Context, f ListFilter) ([]Project, int64, error)
	ProjectBySlug(ctx context.Context, slug string) (*Project, error)
	ListTags(ctx context.Context) ([]Tag, error)
	ListImages(ctx context.Context, offset, limit int) ([]Image, int64, error)
	CreateImage(ctx context.Context, img *Image) error
	Counts(ctx context.Context) (ContentCounts, error)
}
