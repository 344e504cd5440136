package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"portfolio-site/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Register(ctx context.Context, u *domain.User, assign func(existing int64) domain.Role) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.User{}).Count(&n).Error; err != nil {
			return err
		}
		u.Role = assign(n)
		return tx.Create(u).Error
	})
	if err != nil {
		if isDupKey(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]domain.User, int64, error) {
	var users []domain.User
	tx := r.db.WithContext(ctx).Model(&domain.User{}).Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := tx.Offset(offset).Limit(limit).Order("created_at ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL 对值未变化的行返回 0，需再确认是否存在
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
