package search

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-site/internal/domain"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"React", "react"},
		{"  go   generics ", "go generics"},
		{`<script>alert("x");</script>`, "scriptalert(x)/script"},
		{`it's a \ test`, "its a test"},
		{"100% _done_", "100% _done_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Sanitize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Sanitize(got), "sanitize must be idempotent")
		})
	}
}

func TestKey(t *testing.T) {
	k, err := Key("  Learning React ")
	require.NoError(t, err)
	assert.Equal(t, "learning react", k)

	for _, bad := range []string{"", "   ", `<>"';`, strings.Repeat("a", MaxQueryLen+1)} {
		_, err := Key(bad)
		var ve *domain.ValidationError
		require.True(t, errors.As(err, &ve), "input %q", bad)
		assert.Equal(t, "query", ve.Fields[0].Field)
	}

	_, err = Key(strings.Repeat("é", MaxQueryLen))
	assert.NoError(t, err, "length counts runes, not bytes")
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("type", "")
	require.NoError(t, err)
	assert.Nil(t, k)

	k, err = ParseKind("type", "blog")
	require.NoError(t, err)
	assert.Equal(t, domain.KindBlog, *k)

	_, err = ParseKind("resultType", "video")
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "resultType", ve.Fields[0].Field)
}

func TestPaginate(t *testing.T) {
	b := Bounds{DefaultLimit: 20, MaxLimit: 50}
	p, err := b.Paginate(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Page{Limit: 20}, p)

	_, err = b.Paginate(51, 0)
	assert.Error(t, err)
	_, err = b.Paginate(10, -1)
	assert.Error(t, err)
}

func TestFromBlog_SnippetStripsMarkup(t *testing.T) {
	r := FromBlog(domain.Blog{
		ID: "b", Slug: "s", Title: "T",
		Excerpt: "<p>Hello <b>world</b></p>" + strings.Repeat("x", 300),
	}, "t")
	assert.True(t, strings.HasPrefix(r.Description, "Hello world"))
	assert.LessOrEqual(t, len([]rune(r.Description)), snippetLen+1)
	assert.Equal(t, "/blog/s", r.URL)
	assert.Equal(t, TierExactTitle, r.Tier)
}

func TestTier(t *testing.T) {
	assert.Equal(t, TierExactTitle, tier("react", "React"))
	assert.Equal(t, TierTitle, tier("react", "React Starter"))
	assert.Equal(t, TierBody, tier("react", "Starter", "built with react"))
	assert.Equal(t, TierTag, tier("react", "Starter", "nothing"))
}

func TestRank_OrderAndPaging(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	in := []Result{
		{Type: domain.KindTag, ID: "t1", Tier: TierTag, Date: now},
		{Type: domain.KindBlog, ID: "b1", Tier: TierTitle, Date: now.Add(time.Hour)},
		{Type: domain.KindProject, ID: "p1", Tier: TierTitle, Featured: true, Date: now},
		{Type: domain.KindBlog, ID: "b2", Tier: TierTitle, Date: now.Add(time.Hour)},
		{Type: domain.KindBlog, ID: "b0", Tier: TierExactTitle, Date: now.Add(-time.Hour)},
		{Type: domain.KindBlog, ID: "b1", Tier: TierTitle, Date: now.Add(time.Hour)}, // 重复
	}

	got := Rank(in, Page{Limit: 10})
	ids := []string{}
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b0", "p1", "b1", "b2", "t1"}, ids)

	assert.Equal(t, []string{"b1", "b2"}, idsOf(Rank(in, Page{Limit: 2, Offset: 2})))
	assert.Empty(t, Rank(in, Page{Limit: 2, Offset: 10}))
}

func TestRank_Deterministic(t *testing.T) {
	now := time.Now()
	a := []Result{
		{Type: domain.KindBlog, ID: "z", Date: now},
		{Type: domain.KindProject, ID: "a", Date: now},
		{Type: domain.KindImage, ID: "m", Date: now},
	}
	b := []Result{a[2], a[0], a[1]}
	assert.Equal(t, idsOf(Rank(a, Page{Limit: 10})), idsOf(Rank(b, Page{Limit: 10})))
}

func idsOf(rs []Result) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestMerge_KeepsAllForCounting(t *testing.T) {
	in := []Result{
		{Type: domain.KindBlog, ID: "a"},
		{Type: domain.KindProject, ID: "a"},
		{Type: domain.KindBlog, ID: "a"},
	}
	assert.Len(t, Merge(in), 2, "same id across kinds is distinct")
}
