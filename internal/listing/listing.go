// Package listing composes filter, sort, and pagination parameters for the
// list endpoints from loosely-typed query strings.
package listing

import (
	"net/url"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// Params are the normalized list-query parameters.
type Params struct {
	Page     int
	PageSize int
	SortBy   string
	Keyword  string
	IsPublic *bool
}

// Parse reads list parameters from raw query values, falling back to
// defaults for absent or malformed inputs. An absent isPublic leaves the
// visibility filter off entirely.
func Parse(query url.Values) Params {
	p := Params{
		Page:     defaultPage,
		PageSize: defaultPageSize,
		SortBy:   query.Get("sortBy"),
		Keyword:  query.Get("keyword"),
	}

	if page, err := strconv.Atoi(query.Get("page")); err == nil && page >= 1 {
		p.Page = page
	}
	if size, err := strconv.Atoi(query.Get("pageSize")); err == nil && size >= 1 {
		p.PageSize = size
	}
	if raw := query.Get("isPublic"); raw != "" {
		if val, err := strconv.ParseBool(raw); err == nil {
			p.IsPublic = &val
		}
	}

	return p
}

// Offset returns the row offset for the requested page (1-indexed).
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// LikePattern is the substring match pattern for the keyword filter. An
// empty keyword produces a wildcard that matches every row.
func (p Params) LikePattern() string {
	return "%" + p.Keyword + "%"
}

// GroupOrder maps a group sort key onto its ORDER BY clause. The mostBadge
// ordering is lexicographic on the delimited badges text, not a badge
// count; that matches the stored contract.
func GroupOrder(sortBy string) string {
	switch sortBy {
	case "latest":
		return "created_at DESC"
	case "mostPosted":
		return "post_count DESC"
	case "mostBadge":
		return "badges DESC"
	default: // mostLiked
		return "like_count DESC"
	}
}

// PostOrder maps a post sort key onto its ORDER BY clause.
func PostOrder(sortBy string) string {
	switch sortBy {
	case "latest":
		return "created_at DESC"
	case "mostCommented":
		return "comment_count DESC"
	default: // mostLiked
		return "like_count DESC"
	}
}

// Page is the response envelope shared by every list endpoint.
type Page struct {
	CurrentPage    int         `json:"currentPage"`
	TotalPages     int         `json:"totalPages"`
	TotalItemCount int         `json:"totalItemCount"`
	Data           interface{} `json:"data"`
}

// NewPage builds the envelope, deriving totalPages = ceil(total/pageSize).
func NewPage(p Params, total int, data interface{}) Page {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}
	return Page{
		CurrentPage:    p.Page,
		TotalPages:     totalPages,
		TotalItemCount: total,
		Data:           data,
	}
}
