package models

import "time"

// Comment is a reply attached to a post.
type Comment struct {
	ID        int       `db:"id" json:"id"`
	PostID    int       `db:"post_id" json:"postId"`
	Nickname  string    `db:"nickname" json:"nickname"`
	Content   string    `db:"content" json:"content"`
	Password  string    `db:"password" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
