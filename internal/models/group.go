package models

import "time"

// Group is a community group owning posts.
//
// Badges and post/like counters are denormalized onto the row; badges are
// stored as delimited text and exposed as a slice via BadgeList.
type Group struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	ImageURL    string    `db:"image_url" json:"imageUrl"`
	Description string    `db:"description" json:"description"`
	IsPublic    bool      `db:"is_public" json:"isPublic"`
	Password    string    `db:"password" json:"-"`
	LikeCount   int       `db:"like_count" json:"likeCount"`
	PostCount   int       `db:"post_count" json:"postCount"`
	Badges      string    `db:"badges" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// BadgeList returns the badge tokens earned by the group.
func (g Group) BadgeList() []string {
	return SplitDelimited(g.Badges)
}

// HasBadge reports whether the group already holds the token.
func (g Group) HasBadge(token string) bool {
	for _, b := range g.BadgeList() {
		if b == token {
			return true
		}
	}
	return false
}

// DDay is the number of days elapsed since the group was created,
// rounded up so a fresh group shows day 1 once any time has passed.
func (g Group) DDay(now time.Time) int {
	diff := now.Sub(g.CreatedAt)
	if diff < 0 {
		diff = -diff
	}
	days := int(diff.Hours() / 24)
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}
