package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio-site/internal/domain"
	"portfolio-site/pkg/utils"
)

type SearchRepo struct{ db *gorm.DB }

func NewSearchRepo(db *gorm.DB) *SearchRepo { return &SearchRepo{db: db} }

// IncrementSearch 单条 upsert；avg_results 在 search_count 递增前按旧值重算。
// clause.Assignments 按列名排序输出，MySQL 下 avg_results 先于 search_count 求值。
func (r *SearchRepo) IncrementSearch(ctx context.Context, key string, results int, at time.Time) error {
	row := domain.SearchAnalytics{
		ID:           utils.NewID(),
		Query:        key,
		SearchCount:  1,
		AvgResults:   float64(results),
		LastSearched: &at,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "query"}},
		DoUpdates: clause.Assignments(map[string]any{
			"avg_results": gorm.Expr(
				"(search_analytics.avg_results * search_analytics.search_count + ?) / (search_analytics.search_count + 1)",
				results),
			"search_count":  gorm.Expr("search_analytics.search_count + 1"),
			"last_searched": at,
		}),
	}).Create(&row).Error
}

func (r *SearchRepo) IncrementClick(ctx context.Context, key string) error {
	row := domain.SearchAnalytics{
		ID:         utils.NewID(),
		Query:      key,
		ClickCount: 1,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "query"}},
		DoUpdates: clause.Assignments(map[string]any{
			"click_count": gorm.Expr("search_analytics.click_count + 1"),
		}),
	}).Create(&row).Error
}

func (r *SearchRepo) AppendHistory(ctx context.Context, h *domain.SearchHistory) error {
	if h.ID == "" {
		h.ID = utils.NewID()
	}
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *SearchRepo) AttributeClick(ctx context.Context, key, label string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.SearchHistory{}).
		Where("query = ? AND clicked_result IS NULL", key).
		UpdateColumn("clicked_result", label)
	return res.RowsAffected, res.Error
}

func (r *SearchRepo) Analytics(ctx context.Context, key string) (*domain.SearchAnalytics, error) {
	var a domain.SearchAnalytics
	if err := r.db.WithContext(ctx).First(&a, "query = ?", key).Error; err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *SearchRepo) TopQueries(ctx context.Context, limit int) ([]domain.SearchAnalytics, error) {
	var out []domain.SearchAnalytics
	err := r.db.WithContext(ctx).
		Where("search_count > 0").
		Order("search_count DESC").Order("query ASC").
		Limit(limit).Find(&out).Error
	return out, err
}

func (r *SearchRepo) RecentHistory(ctx context.Context, limit int) ([]domain.SearchHistory, error) {
	var out []domain.SearchHistory
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id ASC").Limit(limit).Find(&out).Error
	return out, err
}
