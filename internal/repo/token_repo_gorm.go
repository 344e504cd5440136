package repo

import (
	"context"

	"gorm.io/gorm"

	"portfolio-site/internal/domain"
)

type TokenRepo struct{ db *gorm.DB }

func NewTokenRepo(db *gorm.DB) *TokenRepo { return &TokenRepo{db: db} }

// Replace 先删后建；并发重复请求最后写入者胜出
func (r *TokenRepo) Replace(ctx context.Context, t *domain.VerificationToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identifier = ?", t.Identifier).Delete(&domain.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
}

func (r *TokenRepo) Find(ctx context.Context, token string) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	if err := r.db.WithContext(ctx).First(&t, "token = ?", token).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Delete 行不存在返回 ErrNotFound；并发消费同一 token 时只有一方成功
func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&domain.VerificationToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
