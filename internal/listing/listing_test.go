package listing

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	p := Parse(url.Values{})

	require.Equal(t, 1, p.Page)
	require.Equal(t, 10, p.PageSize)
	require.Empty(t, p.SortBy)
	require.Empty(t, p.Keyword)
	require.Nil(t, p.IsPublic)
	require.Equal(t, 0, p.Offset())
	require.Equal(t, "%%", p.LikePattern())
}

func TestParseValues(t *testing.T) {
	p := Parse(url.Values{
		"page":     {"3"},
		"pageSize": {"5"},
		"sortBy":   {"latest"},
		"keyword":  {"trip"},
		"isPublic": {"true"},
	})

	require.Equal(t, 3, p.Page)
	require.Equal(t, 5, p.PageSize)
	require.Equal(t, "latest", p.SortBy)
	require.Equal(t, "trip", p.Keyword)
	require.NotNil(t, p.IsPublic)
	require.True(t, *p.IsPublic)
	require.Equal(t, 10, p.Offset())
	require.Equal(t, "%trip%", p.LikePattern())
}

func TestParseRejectsMalformed(t *testing.T) {
	p := Parse(url.Values{
		"page":     {"0"},
		"pageSize": {"nope"},
		"isPublic": {"maybe"},
	})

	require.Equal(t, 1, p.Page)
	require.Equal(t, 10, p.PageSize)
	require.Nil(t, p.IsPublic)
}

func TestGroupOrder(t *testing.T) {
	require.Equal(t, "created_at DESC", GroupOrder("latest"))
	require.Equal(t, "post_count DESC", GroupOrder("mostPosted"))
	require.Equal(t, "badges DESC", GroupOrder("mostBadge"))
	require.Equal(t, "like_count DESC", GroupOrder("mostLiked"))
	require.Equal(t, "like_count DESC", GroupOrder(""))
	require.Equal(t, "like_count DESC", GroupOrder("garbage"))
}

func TestPostOrder(t *testing.T) {
	require.Equal(t, "created_at DESC", PostOrder("latest"))
	require.Equal(t, "comment_count DESC", PostOrder("mostCommented"))
	require.Equal(t, "like_count DESC", PostOrder(""))
}

func TestNewPageRoundsUp(t *testing.T) {
	p := Params{Page: 2, PageSize: 10}

	page := NewPage(p, 21, []int{1, 2, 3})
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 21, page.TotalItemCount)

	empty := NewPage(p, 0, []int{})
	require.Equal(t, 0, empty.TotalPages)
	require.Equal(t, 0, empty.TotalItemCount)
}
