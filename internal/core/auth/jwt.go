package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"portfolio-site/internal/domain"
)

type Claims struct {
	UID   string      `json:"uid"`
	Email string      `json:"email"`
	Name  string      `json:"name,omitempty"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (j *JWTer) Issue(u *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:   u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second))

	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// Session 已解析的调用方身份；nil 表示未登录
type Session struct {
	UserID string      `json:"id"`
	Email  string      `json:"email"`
	Name   string      `json:"name,omitempty"`
	Role   domain.Role `json:"role"`
}

// SessionFromToken 无效 token 与未知角色一律视为未登录
func (j *JWTer) SessionFromToken(tokenStr string) *Session {
	if tokenStr == "" {
		return nil
	}
	c, err := j.Parse(tokenStr)
	if err != nil {
		return nil
	}
	role, ok := domain.ParseRole(string(c.Role))
	if !ok {
		return nil
	}
	return &Session{UserID: c.UID, Email: c.Email, Name: c.Name, Role: role}
}
