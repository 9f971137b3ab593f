package models

// ActivityEvent is emitted over websocket connections subscribed to a
// group's activity feed.
type ActivityEvent struct {
	Type    string   `json:"type"`
	GroupID int      `json:"groupId"`
	Post    *Post    `json:"post,omitempty"`
	Comment *Comment `json:"comment,omitempty"`
	Badge   string   `json:"badge,omitempty"`
}
