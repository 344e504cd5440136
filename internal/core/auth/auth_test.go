package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/domain"
)

var (
	admin  = &Session{UserID: "1", Role: domain.RoleAdmin}
	public = &Session{UserID: "2", Role: domain.RolePublic}
)

func newTestJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
}

func TestJWTer_IssueAndParse(t *testing.T) {
	j := newTestJWTer()
	tok, err := j.Issue(&domain.User{ID: "u1", Email: "a@example.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	s := j.SessionFromToken(tok)
	require.NotNil(t, s)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, domain.RoleAdmin, s.Role)
}

func TestJWTer_RejectsBadTokens(t *testing.T) {
	j := newTestJWTer()
	assert.Nil(t, j.SessionFromToken(""))
	assert.Nil(t, j.SessionFromToken("garbage"))

	other := &JWTer{Secret: []byte("other"), Issuer: "test", TTL: time.Hour}
	tok, err := other.Issue(&domain.User{ID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, j.SessionFromToken(tok), "signature mismatch")

	expired := &JWTer{Secret: j.Secret, Issuer: "test", TTL: -time.Hour}
	tok, err = expired.Issue(&domain.User{ID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, j.SessionFromToken(tok), "expired beyond leeway")
}

func TestJWTer_UnknownRoleIsNoSession(t *testing.T) {
	j := newTestJWTer()
	claims := Claims{
		UID:  "u1",
		Role: "SUPERUSER",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.Secret)
	require.NoError(t, err)
	assert.Nil(t, j.SessionFromToken(tok))
}

func TestGuard_Evaluate(t *testing.T) {
	g := NewGuard(GuardConfig{SignInPath: "/auth/signin", DeniedPath: "/auth/access-denied"})

	tests := []struct {
		name     string
		method   string
		path     string
		query    string
		session  *Session
		outcome  Outcome
		location string
	}{
		{"auth api bypass", http.MethodPost, "/api/auth/signin", "", nil, Allow, ""},
		{"auth page bypass", http.MethodGet, "/auth/signin", "", nil, Allow, ""},
		{"admin ui no session", http.MethodGet, "/admin/posts", "tab=2", nil, RedirectSignIn, "/auth/signin?callbackUrl=%2Fadmin%2Fposts%3Ftab%3D2"},
		{"admin ui root no session", http.MethodGet, "/admin", "", nil, RedirectSignIn, "/auth/signin?callbackUrl=%2Fadmin"},
		{"admin ui public role", http.MethodGet, "/admin", "", public, RedirectDenied, "/auth/access-denied"},
		{"admin ui admin", http.MethodGet, "/admin/analytics", "", admin, Allow, ""},
		{"administrator is not admin ui", http.MethodGet, "/administrator", "", nil, Allow, ""},
		{"api get public", http.MethodGet, "/api/blogs", "", nil, Allow, ""},
		{"api post no session", http.MethodPost, "/api/blogs/anything", "", nil, Unauthorized, ""},
		{"api post other no session", http.MethodPost, "/api/search/track-click", "", nil, Unauthorized, ""},
		{"api post public role admin ns", http.MethodPost, "/api/admin/example", "", public, Forbidden, ""},
		{"api delete public role tags", http.MethodDelete, "/api/tags/1", "", public, Forbidden, ""},
		{"api upload public role", http.MethodPost, "/api/upload", "", public, Forbidden, ""},
		{"api post public role non admin ns", http.MethodPost, "/api/search/track-click", "", public, Allow, ""},
		{"api prefix is segment aware", http.MethodPost, "/api/blogsx", "", public, Allow, ""},
		{"api put admin", http.MethodPut, "/api/projects/p1", "", admin, Allow, ""},
		{"preflight allowed", http.MethodOptions, "/api/blogs", "", nil, Allow, ""},
		{"page passthrough", http.MethodPost, "/contact", "", nil, Allow, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Evaluate(tt.method, tt.path, tt.query, tt.session)
			assert.Equal(t, tt.outcome, d.Outcome)
			if tt.location != "" {
				assert.Equal(t, tt.location, d.Location)
			}
		})
	}
}

func TestGuard_PublicAPIAllowlist(t *testing.T) {
	g := NewGuard(GuardConfig{PublicAPI: []string{"/api/search/track-click/"}})
	d := g.Evaluate(http.MethodPost, "/api/search/track-click", "", nil)
	assert.Equal(t, Allow, d.Outcome)
	d = g.Evaluate(http.MethodPost, "/api/blogs", "", nil)
	assert.Equal(t, Unauthorized, d.Outcome)
}

func TestGuard_Require(t *testing.T) {
	g := NewGuard(GuardConfig{})
	assert.Equal(t, Unauthorized, g.Require(nil, domain.RolePublic).Outcome)
	assert.Equal(t, Forbidden, g.Require(public, domain.RoleAdmin).Outcome)
	assert.Equal(t, Allow, g.Require(public, domain.RolePublic).Outcome)
	assert.Equal(t, Allow, g.Require(admin, domain.RoleAdmin).Outcome)
}
