package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/core/auth"
	"portfolio-site/internal/domain"
	"portfolio-site/internal/service"
	"portfolio-site/internal/transport/http/ez"
	mdw "portfolio-site/internal/transport/http/middleware"
)

type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
	MaxAge int // 秒
}

// AuthHandler /api/auth/*：自行管理会话，Guard 直接放行
type AuthHandler struct {
	svc       *service.AuthService
	cookie    CookieConfig
	sensitive gin.HandlerFunc // 登录/找回密码限流
}

func NewAuthHandler(svc *service.AuthService, cookie CookieConfig, sensitive gin.HandlerFunc) *AuthHandler {
	if sensitive == nil {
		sensitive = func(c *gin.Context) { c.Next() }
	}
	return &AuthHandler{svc: svc, cookie: cookie, sensitive: sensitive}
}

func (h *AuthHandler) Priority() int { return 10 }

type userOut struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

type sessionOut struct {
	User  userOut `json:"user"`
	Token string  `json:"token"`
}

func toUserOut(u *domain.User) userOut {
	return userOut{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (h *AuthHandler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, h.cookie.MaxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) MountAPI(api ez.EZ) {
	g := api.Group("/auth")

	type signupIn struct {
		Email    string `json:"email"    binding:"required,email,max=191"`
		Password string `json:"password" binding:"required,min=8,max=72"`
		Name     string `json:"name"     binding:"omitempty,max=64"`
	}
	ez.RegisterAction(g, ez.Action[signupIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/signup",
		Op:     "auth.signup",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Before: []gin.HandlerFunc{h.sensitive},
		Handler: func(c *gin.Context, in *signupIn) (sessionOut, error) {
			u, tok, err := h.svc.Signup(c.Request.Context(), service.SignupInput{Email: in.Email, Password: in.Password, Name: in.Name})
			if errors.Is(err, service.ErrEmailTaken) {
				return sessionOut{}, ez.Conflict("Email already registered")
			}
			if err != nil {
				return sessionOut{}, err
			}
			h.setSession(c, tok)
			return sessionOut{User: toUserOut(u), Token: tok}, nil
		},
	})

	type signinIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required,max=72"`
	}
	ez.RegisterAction(g, ez.Action[signinIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/signin",
		Op:     "auth.signin",
		Binder: ez.BindJSON,
		Before: []gin.HandlerFunc{h.sensitive},
		Handler: func(c *gin.Context, in *signinIn) (sessionOut, error) {
			u, tok, err := h.svc.Signin(c.Request.Context(), in.Email, in.Password)
			if errors.Is(err, service.ErrInvalidCredentials) {
				return sessionOut{}, ez.Unauthorized("Invalid email or password")
			}
			if err != nil {
				return sessionOut{}, err
			}
			h.setSession(c, tok)
			return sessionOut{User: toUserOut(u), Token: tok}, nil
		},
	})

	ez.RegisterAction(g, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/signout",
		Op:     "auth.signout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
			return gin.H{"success": true}, nil
		},
	})

	// 未登录返回 null
	ez.RegisterAction(g, ez.Action[struct{}, *auth.Session]{
		Method: http.MethodGet,
		Path:   "/session",
		Op:     "auth.session",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*auth.Session, error) {
			return mdw.SessionOf(c), nil
		},
	})

	// 需要会话；返回库里的最新资料（角色变更后 token 内的可能已过时）
	ez.RegisterAction(g, ez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/me",
		Op:     "auth.me",
		Binder: ez.BindNone,
		Role:   domain.RolePublic,
		Handler: func(c *gin.Context, _ *struct{}) (userOut, error) {
			u, err := h.svc.Me(c.Request.Context(), mdw.SessionOf(c))
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	type forgotIn struct {
		Email string `json:"email" binding:"required,email"`
	}
	ez.RegisterAction(g, ez.Action[forgotIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/forgot-password",
		Op:     "auth.forgot_password",
		Binder: ez.BindJSON,
		Before: []gin.HandlerFunc{h.sensitive},
		Handler: func(c *gin.Context, in *forgotIn) (gin.H, error) {
			if err := h.svc.ForgotPassword(c.Request.Context(), in.Email); err != nil {
				return nil, err
			}
			return gin.H{"message": service.ForgotPasswordMessage}, nil
		},
	})

	type resetIn struct {
		Token    string `json:"token"    binding:"required,max=128"`
		Password string `json:"password" binding:"required,min=8,max=72"`
	}
	ez.RegisterAction(g, ez.Action[resetIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/reset-password",
		Op:     "auth.reset_password",
		Binder: ez.BindJSON,
		Before: []gin.HandlerFunc{h.sensitive},
		Handler: func(c *gin.Context, in *resetIn) (gin.H, error) {
			err := h.svc.ResetPassword(c.Request.Context(), in.Token, in.Password)
			if errors.Is(err, service.ErrInvalidToken) {
				return nil, ez.BadRequest("Invalid or expired reset token")
			}
			if err != nil {
				return nil, err
			}
			return gin.H{"message": "Password has been reset"}, nil
		},
	})
}
