package repo

import (
	"gorm.io/gorm"

	"portfolio-site/internal/domain"
)

func Models() []any {
	return []any{
		&domain.User{},
		&domain.VerificationToken{},
		&domain.Tag{},
		&domain.Blog{},
		&domain.Project{},
		&domain.Image{},
		&domain.SearchHistory{},
		&domain.SearchAnalytics{},
	}
}

func Migrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
