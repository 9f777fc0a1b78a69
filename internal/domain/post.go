package domain

import "time"

const (
	VoteTargetPost    = "post"
	VoteTargetComment = "comment"
)

const (
	VoteUp   int8 = 1
	VoteDown int8 = -1
)

type Post struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	AuthorID  string      `gorm:"size:36;index;not null" json:"author_id"`
	Content   string      `gorm:"size:4096;not null" json:"content"`
	Images    []PostImage `gorm:"constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type PostImage struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	PostID      string `gorm:"size:36;index;not null" json:"-"`
	Key         string `gorm:"size:128;not null" json:"-"`
	ContentType string `gorm:"size:128" json:"content_type"`
}

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;index;not null" json:"post_id"`
	AuthorID  string    `gorm:"size:36;index;not null" json:"author_id"`
	Content   string    `gorm:"size:2048;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vote is one user's like or dislike of a post or comment. The composite
// unique index allows at most one vote per user per target; casting again
// replaces the value.
type Vote struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;uniqueIndex:idx_votes_user_target;not null" json:"user_id"`
	TargetID   string    `gorm:"size:36;uniqueIndex:idx_votes_user_target;index;not null" json:"target_id"`
	TargetType string    `gorm:"size:16;uniqueIndex:idx_votes_user_target;not null" json:"target_type"`
	Value      int8      `gorm:"not null" json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
