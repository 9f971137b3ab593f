package models

import "time"

// Post is an entry created inside a group.
//
// Tags are stored as delimited text; responses expose them as a slice via
// TagList. Moment is an optional user-supplied date string (YYYY-MM-DD).
type Post struct {
	ID           int       `db:"id" json:"id"`
	GroupID      int       `db:"group_id" json:"groupId"`
	Nickname     string    `db:"nickname" json:"nickname"`
	Title        string    `db:"title" json:"title"`
	Content      string    `db:"content" json:"content"`
	PostPassword string    `db:"post_password" json:"-"`
	ImageURL     string    `db:"image_url" json:"imageUrl"`
	Tags         string    `db:"tags" json:"-"`
	Location     string    `db:"location" json:"location"`
	Moment       *string   `db:"moment" json:"moment,omitempty"`
	IsPublic     bool      `db:"is_public" json:"isPublic"`
	LikeCount    int       `db:"like_count" json:"likeCount"`
	CommentCount int       `db:"comment_count" json:"commentCount"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// TagList returns the post tags as a slice.
func (p Post) TagList() []string {
	return SplitDelimited(p.Tags)
}
