package search

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"portfolio-site/internal/domain"
)

// 命中层级，越小越靠前
const (
	TierExactTitle = iota
	TierTitle
	TierBody
	TierTag
)

const snippetLen = 200

var plain = bluemonday.StrictPolicy()

// Result 足够渲染一张卡片，无需二次查询
type Result struct {
	Type        domain.ContentKind `json:"type"`
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Slug        string             `json:"slug,omitempty"`
	Description string             `json:"description,omitempty"`
	URL         string             `json:"url"`
	Image       string             `json:"image,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Featured    bool               `json:"featured"`
	Views       int64              `json:"views,omitempty"`
	Date        time.Time          `json:"date"`
	Tier        int                `json:"-"`
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(plain.Sanitize(s)), " ")
	if utf8.RuneCountInString(s) <= snippetLen {
		return s
	}
	return string([]rune(s)[:snippetLen]) + "…"
}

func tagNames(tags []domain.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func contains(field, term string) bool { return strings.Contains(strings.ToLower(field), term) }

func tier(term, title string, body ...string) int {
	t := strings.ToLower(strings.TrimSpace(title))
	switch {
	case t == term:
		return TierExactTitle
	case strings.Contains(t, term):
		return TierTitle
	}
	for _, b := range body {
		if contains(b, term) {
			return TierBody
		}
	}
	return TierTag
}

func FromProject(p domain.Project, term string) Result {
	return Result{
		Type:        domain.KindProject,
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Description: snippet(p.Description),
		URL:         "/projects/" + p.Slug,
		Image:       p.CoverImage,
		Tags:        tagNames(p.Tags),
		Featured:    p.Featured,
		Views:       p.Views,
		Date:        p.CreatedAt,
		Tier:        tier(term, p.Title, p.Description),
	}
}

func FromBlog(b domain.Blog, term string) Result {
	date := b.CreatedAt
	if b.PublishedAt != nil {
		date = *b.PublishedAt
	}
	return Result{
		Type:        domain.KindBlog,
		ID:          b.ID,
		Title:       b.Title,
		Slug:        b.Slug,
		Description: snippet(b.Excerpt),
		URL:         "/blog/" + b.Slug,
		Image:       b.CoverImage,
		Tags:        tagNames(b.Tags),
		Featured:    b.Featured,
		Views:       b.Views,
		Date:        date,
		Tier:        tier(term, b.Title, b.Excerpt),
	}
}

// FromImage alt 视为标题，caption 视为正文
func FromImage(img domain.Image, term string) Result {
	title := img.Alt
	if strings.TrimSpace(title) == "" {
		title = img.Caption
	}
	return Result{
		Type:        domain.KindImage,
		ID:          img.ID,
		Title:       title,
		Description: snippet(img.Caption),
		URL:         img.URL,
		Image:       img.URL,
		Tags:        tagNames(img.Tags),
		Date:        img.CreatedAt,
		Tier:        tier(term, img.Alt, img.Caption),
	}
}

func FromTag(t domain.Tag, term string) Result {
	return Result{
		Type:  domain.KindTag,
		ID:    t.ID,
		Title: t.Name,
		Slug:  t.Slug,
		URL:   "/tags/" + t.Slug,
		Date:  t.CreatedAt,
		Tier:  tier(term, t.Name),
	}
}
