package models

import (
	"time"

	"github.com/google/uuid"
)

// Field limits shared by validation and the schema.
const (
	MaxTitleLength    = 200
	MaxSubtitleLength = 300
	MaxCommentLength  = 2000
	MaxLocationLength = 100
)

// AnonymousAuthorName is shown for comments whose author account is gone.
const AnonymousAuthorName = "Anonymous"

// Post is a blog post. Title is globally unique.
type Post struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Subtitle       string    `db:"subtitle" json:"subtitle"`
	Body           string    `db:"body" json:"body"`
	ImageURL       string    `db:"image_url" json:"imageUrl"`
	AuthorID       uuid.UUID `db:"author_id" json:"authorId"`
	AuthorUsername string    `db:"author_username" json:"authorUsername"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// PostFields is the editable part of a Post.
type PostFields struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Body     string `json:"body"`
	ImageURL string `json:"imageUrl"`
}

// Comment belongs to a Post. AuthorID becomes nil when the author is deleted.
type Comment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PostID         uuid.UUID  `db:"post_id" json:"postId"`
	AuthorID       *uuid.UUID `db:"author_id" json:"authorId"`
	AuthorUsername *string    `db:"author_username" json:"-"`
	Body           string     `db:"body" json:"body"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// AuthorName returns the author's username, or "Anonymous" once the author is gone.
func (c *Comment) AuthorName() string {
	if c.AuthorID == nil || c.AuthorUsername == nil || *c.AuthorUsername == "" {
		return AnonymousAuthorName
	}
	return *c.AuthorUsername
}

// PostDetail is a post with its comments, oldest first.
type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}
