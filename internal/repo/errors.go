package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"portfolio-site/internal/domain"
)

// isDupKey 兼容未开 TranslateError 的连接，按各驱动的报错文本兜底
func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// likePattern 小写 + 转义通配符，配合 ESCAPE '!'
func likePattern(term string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}
