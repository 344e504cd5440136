// Package search holds the pure parts of site search: building the canonical
// query key shared by search and click tracking, and ranking merged results.
package search

import (
	"strings"
	"unicode/utf8"

	"portfolio-site/internal/domain"
)

const MaxQueryLen = 200

var stripper = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", `\`, "", ";", "")

// Sanitize 去掉有注入风险的字符、合并空白并转小写；幂等
func Sanitize(q string) string {
	q = stripper.Replace(q)
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// Key 校验原始输入并返回分析用的规范 key
func Key(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(trimmed)
	if n == 0 {
		return "", domain.Invalid("query", "is required")
	}
	if n > MaxQueryLen {
		return "", domain.Invalid("query", "must be at most 200 characters")
	}
	key := Sanitize(trimmed)
	if key == "" {
		return "", domain.Invalid("query", "contains no searchable characters")
	}
	return key, nil
}

// ParseKind 空串表示不过滤
func ParseKind(field, s string) (*domain.ContentKind, error) {
	if s == "" {
		return nil, nil
	}
	k, ok := domain.ParseKind(s)
	if !ok {
		return nil, domain.Invalid(field, "must be one of project, blog, image, tag")
	}
	return &k, nil
}

type Bounds struct {
	DefaultLimit int
	MaxLimit     int
}

type Page struct {
	Limit  int
	Offset int
}

// Paginate limit=0 取默认值；越界直接报错而不是静默截断
func (b Bounds) Paginate(limit, offset int) (Page, error) {
	if limit == 0 {
		limit = b.DefaultLimit
	}
	if limit < 0 || limit > b.MaxLimit {
		return Page{}, domain.Invalid("limit", "out of range")
	}
	if offset < 0 {
		return Page{}, domain.Invalid("offset", "must not be negative")
	}
	return Page{Limit: limit, Offset: offset}, nil
}
