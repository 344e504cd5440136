package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfolio-site/internal/core/auth"
	"portfolio-site/internal/core/mail"
	"portfolio-site/internal/domain"
	"portfolio-site/pkg/utils"
)

// ForgotPasswordMessage 无论账号是否存在都返回同一句，防止枚举邮箱
const ForgotPasswordMessage = "If an account exists with that email, a password reset link has been sent."

const resetTokenBytes = 32

type AuthConfig struct {
	ResetTTL     time.Duration
	ResetBaseURL string
}

type AuthService struct {
	users  domain.UserRepository
	tokens domain.TokenRepository
	jwt    *auth.JWTer
	mailer mail.Mailer
	log    *zap.Logger
	cfg    AuthConfig
	now    func() time.Time
}

func NewAuthService(users domain.UserRepository, tokens domain.TokenRepository, j *auth.JWTer, m mail.Mailer, l *zap.Logger, cfg AuthConfig) *AuthService {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &AuthService{users: users, tokens: tokens, jwt: j, mailer: m, log: l, cfg: cfg, now: time.Now}
}

// FirstUserAdmin 系统中第一个注册的用户自动成为 ADMIN
func FirstUserAdmin(existing int64) domain.Role {
	if existing == 0 {
		return domain.RoleAdmin
	}
	return domain.RolePublic
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// Signup 返回新用户与会话 token
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("signup: hash: %w", err)
	}
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	u := &domain.User{ID: utils.NewID(), Email: email, Name: name, PasswordHash: &hash}
	if err := s.users.Register(ctx, u, FirstUserAdmin); err != nil {
		authEvents.WithLabelValues("signup", "error").Inc()
		if errors.Is(err, domain.ErrConflict) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("signup: %w", err)
	}
	authEvents.WithLabelValues("signup", "ok").Inc()
	s.log.Info("user registered", zap.String("uid", u.ID), zap.String("role", string(u.Role)))

	tok, err := s.jwt.Issue(u)
	if err != nil {
		return nil, "", fmt.Errorf("signup: issue token: %w", err)
	}
	return u, tok, nil
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			authEvents.WithLabelValues("signin", "denied").Inc()
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("signin: %w", err)
	}
	// OAuth-only 账号没有密码
	if u.PasswordHash == nil || !utils.CheckPassword(password, *u.PasswordHash) {
		authEvents.WithLabelValues("signin", "denied").Inc()
		return nil, "", ErrInvalidCredentials
	}
	tok, err := s.jwt.Issue(u)
	if err != nil {
		return nil, "", fmt.Errorf("signin: issue token: %w", err)
	}
	authEvents.WithLabelValues("signin", "ok").Inc()
	return u, tok, nil
}

// Me 会话对应的最新用户信息；用户已不存在时返回 ErrNotFound
func (s *AuthService) Me(ctx context.Context, sess *auth.Session) (*domain.User, error) {
	return s.users.FindByID(ctx, sess.UserID)
}

// ForgotPassword 账号不存在时静默返回 nil，不写 token
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	raw, err := utils.NewToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("forgot password: token: %w", err)
	}
	t := &domain.VerificationToken{Token: raw, Identifier: u.Email, Expires: s.now().Add(s.cfg.ResetTTL)}
	if err := s.tokens.Replace(ctx, t); err != nil {
		return fmt.Errorf("forgot password: store token: %w", err)
	}

	link := s.cfg.ResetBaseURL + "?token=" + url.QueryEscape(raw)
	err = s.mailer.Send(ctx, mail.Message{
		To:      u.Email,
		Subject: "Reset your password",
		Body:    "Use the link below to reset your password. It expires in " + s.cfg.ResetTTL.String() + ".\n\n" + link,
	})
	if err != nil {
		// 邮件失败不改变对外响应
		s.log.Error("send reset mail failed", zap.String("op", "auth.forgot_password"), zap.Error(err))
	}
	authEvents.WithLabelValues("forgot_password", "issued").Inc()
	return nil
}

// ResetPassword token 先消费再改密码；过期 token 在发现时即删除
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	t, err := s.tokens.Find(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if t.Expired(s.now()) {
		if err := s.tokens.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("delete expired token failed", zap.Error(err))
		}
		return ErrInvalidToken
	}

	u, err := s.users.FindByEmail(ctx, t.Identifier)
	if errors.Is(err, domain.ErrNotFound) {
		_ = s.tokens.Delete(ctx, token)
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w", err)
	}
	// 并发重复提交时只有删除成功的一方继续
	if err := s.tokens.Delete(ctx, token); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("reset password: consume token: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("reset password: update: %w", err)
	}
	authEvents.WithLabelValues("reset_password", "ok").Inc()
	return nil
}
