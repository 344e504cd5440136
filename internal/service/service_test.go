package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio-site/internal/core/auth"
	"portfolio-site/internal/core/cache"
	"portfolio-site/internal/core/database/dbtest"
	"portfolio-site/internal/core/mail"
	"portfolio-site/internal/domain"
	"portfolio-site/internal/repo"
)

type deps struct {
	db       *gorm.DB
	users    *repo.UserRepo
	tokens   *repo.TokenRepo
	content  *repo.ContentRepo
	searches *repo.SearchRepo
}

func newDeps(t *testing.T) deps {
	t.Helper()
	db := dbtest.Open(t, repo.Migrate)
	return deps{
		db:       db,
		users:    repo.NewUserRepo(db),
		tokens:   repo.NewTokenRepo(db),
		content:  repo.NewContentRepo(db),
		searches: repo.NewSearchRepo(db),
	}
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	react := domain.Tag{ID: "tag-react", Name: "React", Slug: "react", CreatedAt: base}
	require.NoError(t, db.Create(&react).Error)
	require.NoError(t, db.Create(&domain.Project{
		ID: "p1", Slug: "react-starter", Title: "React Starter", Description: "<b>Boilerplate</b>",
		Published: true, Featured: true, CreatedAt: base,
	}).Error)
	require.NoError(t, db.Create(&domain.Blog{
		ID: "b1", Slug: "learning-react", Title: "Learning React", Published: true,
		CreatedAt: base.Add(48 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&domain.Blog{
		ID: "b2", Slug: "react-secrets", Title: "React secrets", Published: false,
		CreatedAt: base.Add(72 * time.Hour),
	}).Error)
}

func newSearch(d deps) *SearchService {
	return NewSearchService(d.content, d.searches, cache.New("", "", 0), zap.NewNop(), SearchConfig{DefaultLimit: 20, MaxLimit: 50})
}

func TestSearch_FeaturedProjectFirstAndDraftsExcluded(t *testing.T) {
	d := newDeps(t)
	seed(t, d.db)
	s := newSearch(d)

	got, err := s.Search(context.Background(), SearchRequest{Query: "  React "})
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	// React 标签本身是精确标题命中，排最前
	assert.Equal(t, []string{"tag-react", "p1", "b1"}, ids)
	assert.NotContains(t, ids, "b2")
	assert.Equal(t, "Boilerplate", got[1].Description)

	a, err := d.searches.Analytics(context.Background(), "react")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.SearchCount)
	assert.InDelta(t, 3.0, a.AvgResults, 1e-9)

	hist, err := d.searches.RecentHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "react", hist[0].Query)
	assert.Nil(t, hist[0].ClickedResult)
}

func TestSearch_TypeFilterAndPaging(t *testing.T) {
	d := newDeps(t)
	seed(t, d.db)
	s := newSearch(d)
	ctx := context.Background()

	got, err := s.Search(ctx, SearchRequest{Query: "react", Type: "blog"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.KindBlog, got[0].Type)

	got, err = s.Search(ctx, SearchRequest{Query: "react", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)

	got, err = s.Search(ctx, SearchRequest{Query: "nothing-matches"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	// react 两次搜索的结果数分别为 1 与 3
	a, err := d.searches.Analytics(ctx, "react")
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.SearchCount)
	assert.InDelta(t, 2.0, a.AvgResults, 1e-9)
}

// seedGo 一个较早的精确标题命中，外加五个较新的仅描述命中
func seedGo(t *testing.T, db *gorm.DB) {
	t.Helper()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&domain.Project{
		ID: "exact", Slug: "go", Title: "Go", Published: true, CreatedAt: base,
	}).Error)
	for i := 1; i <= 5; i++ {
		require.NoError(t, db.Create(&domain.Project{
			ID: fmt.Sprintf("desc-%d", i), Slug: fmt.Sprintf("tool-%d", i), Title: fmt.Sprintf("Tool %d", i),
			Description: "written in go", Published: true, CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}).Error)
	}
}

func TestSearch_RankingHoldsWhenMatchesExceedLimit(t *testing.T) {
	d := newDeps(t)
	seedGo(t, d.db)
	s := newSearch(d)

	got, err := s.Search(context.Background(), SearchRequest{Query: "go", Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].ID)
	assert.Equal(t, "desc-5", got[1].ID)
	assert.Equal(t, "desc-4", got[2].ID)

	got, err = s.Search(context.Background(), SearchRequest{Query: "go", Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "desc-2", got[0].ID)
	assert.Equal(t, "desc-1", got[1].ID)
}

func TestSearch_AvgResultsIndependentOfPageSize(t *testing.T) {
	d := newDeps(t)
	seedGo(t, d.db)
	s := newSearch(d)
	ctx := context.Background()

	for _, limit := range []int{3, 20, 1} {
		_, err := s.Search(ctx, SearchRequest{Query: "go", Limit: limit})
		require.NoError(t, err)
	}
	a, err := d.searches.Analytics(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(3), a.SearchCount)
	assert.InDelta(t, 6.0, a.AvgResults, 1e-9)

	hist, err := d.searches.RecentHistory(ctx, 10)
	require.NoError(t, err)
	for _, h := range hist {
		assert.Equal(t, 6, h.ResultCount)
	}
}

// panicRepo 任何调用都会 panic：用来证明校验失败时未触达仓储
type panicRepo struct {
	domain.ContentRepository
	domain.SearchRepository
}

func TestSearch_ValidationBeforeRepository(t *testing.T) {
	var p panicRepo
	s := NewSearchService(p, p, nil, zap.NewNop(), SearchConfig{DefaultLimit: 20, MaxLimit: 50})

	_, err := s.Search(context.Background(), SearchRequest{Query: "   ", Type: "video", Limit: 500})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	fields := []string{}
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"query", "type", "limit"}, fields)
}

type failingContent struct {
	domain.ContentRepository
}

func (failingContent) SearchProjects(context.Context, string, int) ([]domain.Project, int64, error) {
	return nil, 0, nil
}
func (failingContent) SearchBlogs(context.Context, string, int) ([]domain.Blog, int64, error) {
	return nil, 0, errors.New("connection reset")
}
func (failingContent) SearchImages(context.Context, string, int) ([]domain.Image, int64, error) {
	return nil, 0, nil
}
func (failingContent) SearchTags(context.Context, string, int) ([]domain.Tag, int64, error) {
	return nil, 0, nil
}

func TestSearch_RepositoryErrorIsWholeFailure(t *testing.T) {
	d := newDeps(t)
	s := NewSearchService(failingContent{}, d.searches, nil, zap.NewNop(), SearchConfig{})

	got, err := s.Search(context.Background(), SearchRequest{Query: "react"})
	require.Error(t, err)
	assert.Nil(t, got)
	var ve *domain.ValidationError
	assert.False(t, errors.As(err, &ve))

	_, err = d.searches.Analytics(context.Background(), "react")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "failed search is not recorded")
}

func TestPopular_UsesTopQueries(t *testing.T) {
	d := newDeps(t)
	seed(t, d.db)
	s := newSearch(d)
	ctx := context.Background()
	for _, q := range []string{"react", "react", "go"} {
		_, err := s.Search(ctx, SearchRequest{Query: q})
		require.NoError(t, err)
	}
	pop, err := s.Popular(ctx)
	require.NoError(t, err)
	require.Len(t, pop, 2)
	assert.Equal(t, "react", pop[0].Query)
	assert.Equal(t, int64(2), pop[0].SearchCount)
}

func TestClick_SharesKeyWithSearchAndAttributesOnce(t *testing.T) {
	d := newDeps(t)
	seed(t, d.db)
	s := newSearch(d)
	c := NewClickTracker(d.content, d.searches, zap.NewNop())
	ctx := context.Background()

	_, err := s.Search(ctx, SearchRequest{Query: `React"`})
	require.NoError(t, err)
	_, err = s.Search(ctx, SearchRequest{Query: "react"})
	require.NoError(t, err)

	require.NoError(t, c.Track(ctx, ClickRequest{Query: "<REACT>", ClickedResult: "React Starter", ResultType: "project", ResultID: "p1"}))
	require.NoError(t, c.Track(ctx, ClickRequest{Query: "react", ClickedResult: "Learning React", ResultType: "blog", ResultID: "b1"}))

	a, err := d.searches.Analytics(ctx, "react")
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.SearchCount)
	assert.Equal(t, int64(2), a.ClickCount)

	hist, err := d.searches.RecentHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	for _, h := range hist {
		require.NotNil(t, h.ClickedResult)
		assert.Equal(t, "React Starter", *h.ClickedResult, "second click never overwrites")
	}

	var p domain.Project
	require.NoError(t, d.db.First(&p, "id = ?", "p1").Error)
	assert.Equal(t, int64(1), p.Views)
}

func TestClick_MissingContentAndNoViewCounterAreIgnored(t *testing.T) {
	d := newDeps(t)
	c := NewClickTracker(d.content, d.searches, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, c.Track(ctx, ClickRequest{Query: "gone", ClickedResult: "Deleted post", ResultType: "blog", ResultID: "nope"}))
	require.NoError(t, c.Track(ctx, ClickRequest{Query: "gone", ClickedResult: "Logo", ResultType: "image", ResultID: "i1"}))

	a, err := d.searches.Analytics(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, int64(0), a.SearchCount)
	assert.Equal(t, int64(2), a.ClickCount)
}

func TestClick_DraftViewsUnchanged(t *testing.T) {
	d := newDeps(t)
	seed(t, d.db)
	c := NewClickTracker(d.content, d.searches, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, c.Track(ctx, ClickRequest{Query: "react", ClickedResult: "React secrets", ResultType: "blog", ResultID: "b2"}))

	var b domain.Blog
	require.NoError(t, d.db.First(&b, "id = ?", "b2").Error)
	assert.Equal(t, int64(0), b.Views)
	a, err := d.searches.Analytics(ctx, "react")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ClickCount)
}

func TestClick_Validation(t *testing.T) {
	var p panicRepo
	c := NewClickTracker(p, p, zap.NewNop())
	err := c.Track(context.Background(), ClickRequest{Query: "react", ClickedResult: " ", ResultType: "video"})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 2)
}

func TestClick_ConcurrentClicksAreNotLost(t *testing.T) {
	d := newDeps(t)
	c := NewClickTracker(d.content, d.searches, zap.NewNop())
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Track(context.Background(), ClickRequest{Query: "race", ClickedResult: "x"}))
		}()
	}
	wg.Wait()
	a, err := d.searches.Analytics(context.Background(), "race")
	require.NoError(t, err)
	assert.Equal(t, int64(n), a.ClickCount)
}

// captureMailer 记录发出的邮件
type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func newAuth(d deps, m mail.Mailer) *AuthService {
	j := &auth.JWTer{Secret: []byte("test"), Issuer: "test", TTL: time.Hour}
	return NewAuthService(d.users, d.tokens, j, m, zap.NewNop(), AuthConfig{ResetTTL: time.Hour, ResetBaseURL: "http://site/auth/reset-password"})
}

func TestSignup_FirstUserIsAdmin(t *testing.T) {
	d := newDeps(t)
	s := newAuth(d, &captureMailer{})
	ctx := context.Background()

	first, tok, err := s.Signup(ctx, SignupInput{Email: " Owner@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, domain.RoleAdmin, first.Role)
	assert.Equal(t, "owner@example.com", first.Email)
	assert.Equal(t, "owner", first.Name)

	second, _, err := s.Signup(ctx, SignupInput{Email: "guest@example.com", Password: "password2", Name: "Guest"})
	require.NoError(t, err)
	assert.Equal(t, domain.RolePublic, second.Role)

	_, _, err = s.Signup(ctx, SignupInput{Email: "OWNER@example.com", Password: "password3"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignin(t *testing.T) {
	d := newDeps(t)
	s := newAuth(d, &captureMailer{})
	ctx := context.Background()
	_, _, err := s.Signup(ctx, SignupInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	u, tok, err := s.Signin(ctx, "A@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	sess := s.jwt.SessionFromToken(tok)
	require.NotNil(t, sess)
	assert.Equal(t, u.ID, sess.UserID)

	_, _, err = s.Signin(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = s.Signin(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// OAuth-only 账号
	require.NoError(t, d.db.Create(&domain.User{ID: "oauth", Email: "o@example.com", Role: domain.RolePublic}).Error)
	_, _, err = s.Signin(ctx, "o@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestForgotPassword_UnknownEmailCreatesNoToken(t *testing.T) {
	d := newDeps(t)
	m := &captureMailer{}
	s := newAuth(d, m)

	require.NoError(t, s.ForgotPassword(context.Background(), "ghost@example.com"))
	var n int64
	require.NoError(t, d.db.Model(&domain.VerificationToken{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, m.sent)
}

func TestResetPassword_TokenSingleUse(t *testing.T) {
	d := newDeps(t)
	m := &captureMailer{}
	s := newAuth(d, m)
	ctx := context.Background()
	_, _, err := s.Signup(ctx, SignupInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, s.ForgotPassword(ctx, "a@example.com"))
	require.NoError(t, s.ForgotPassword(ctx, "a@example.com"))
	require.Len(t, m.sent, 2)

	var toks []domain.VerificationToken
	require.NoError(t, d.db.Find(&toks).Error)
	require.Len(t, toks, 1, "older token replaced")
	tok := toks[0].Token
	assert.Contains(t, m.sent[1].Body, tok)

	require.NoError(t, s.ResetPassword(ctx, tok, "new-password"))
	assert.ErrorIs(t, s.ResetPassword(ctx, tok, "again-password"), ErrInvalidToken)

	_, _, err = s.Signin(ctx, "a@example.com", "new-password")
	require.NoError(t, err)
}

func TestResetPassword_ExpiredTokenDeleted(t *testing.T) {
	d := newDeps(t)
	s := newAuth(d, &captureMailer{})
	ctx := context.Background()
	_, _, err := s.Signup(ctx, SignupInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	require.NoError(t, s.ForgotPassword(ctx, "a@example.com"))

	var tok domain.VerificationToken
	require.NoError(t, d.db.First(&tok).Error)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, s.ResetPassword(ctx, tok.Token, "new-password"), ErrInvalidToken)

	_, err = d.tokens.Find(ctx, tok.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContent_DetailIncrementsViews(t *testing.T) {
	d := newDeps(t)
	seed(t, d.db)
	s := NewContentService(d.content, zap.NewNop())
	ctx := context.Background()

	b, err := s.Blog(ctx, "learning-react")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.Views)
	b, err = s.Blog(ctx, "learning-react")
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.Views)

	_, err = s.Blog(ctx, "react-secrets")
	assert.ErrorIs(t, err, domain.ErrNotFound, "drafts are not public")

	page, err := s.Blogs(ctx, domain.ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestAdmin_SetRole(t *testing.T) {
	d := newDeps(t)
	a := newAuth(d, &captureMailer{})
	ctx := context.Background()
	owner, _, err := a.Signup(ctx, SignupInput{Email: "owner@example.com", Password: "password1"})
	require.NoError(t, err)
	guest, _, err := a.Signup(ctx, SignupInput{Email: "guest@example.com", Password: "password1"})
	require.NoError(t, err)

	s := NewAdminService(d.users, d.content, d.searches, nil, zap.NewNop())
	actor := &auth.Session{UserID: owner.ID, Role: domain.RoleAdmin}

	u, err := s.SetRole(ctx, actor, guest.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = s.SetRole(ctx, actor, owner.ID, "PUBLIC")
	assert.ErrorIs(t, err, ErrSelfDemotion)

	_, err = s.SetRole(ctx, actor, guest.ID, "root")
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = s.SetRoleByEmail(ctx, "missing@example.com", "ADMIN")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	u, err = s.SetRoleByEmail(ctx, " GUEST@example.com ", "public")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePublic, u.Role)

	assert.NoError(t, s.ResetPopular(ctx), "no cache configured")

	dash, err := s.Dashboard(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dash.Counts.Users)
	assert.False(t, dash.Cache)
}
