package domain

import (
	"context"
	"strings"
	"time"
)

// Role 访问级别，闭合枚举
type Role string

const (
	RolePublic Role = "PUBLIC"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole 兼容历史数据里的小写写法（"admin"），未知值返回 false
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RolePublic:
		return RolePublic, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

type User struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Email         string     `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name          string     `gorm:"size:64" json:"name"`
	PasswordHash  *string    `gorm:"size:100" json:"-"` // OAuth-only 账号为空
	Role          Role       `gorm:"size:16;not null;default:PUBLIC" json:"role"`
	EmailVerified *time.Time `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// VerificationToken 一次性凭证（密码重置）
type VerificationToken struct {
	Token      string    `gorm:"primaryKey;size:128"`
	Identifier string    `gorm:"size:191;not null;index"`
	Expires    time.Time `gorm:"not null"`
}

func (VerificationToken) TableName() string { return "verification_tokens" }

func (t VerificationToken) Expired(now time.Time) bool { return !now.Before(t.Expires) }

type UserRepository interface {
	// Register 在同一事务内统计已有用户数并由 assign 决定角色后写入
	Register(ctx context.Context, u *User, assign func(existing int64) Role) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, offset, limit int) ([]User, int64, error)
	UpdateRole(ctx context.Context, id string, role Role) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

type TokenRepository interface {
	// Replace 删除 identifier 下的旧 token 后写入新 token
	Replace(ctx context.Context, t *VerificationToken) error
	Find(ctx context.Context, token string) (*VerificationToken, error)
	// Delete 消费 token；已被删除时返回 ErrNotFound
	Delete(ctx context.Context, token string) error
}
