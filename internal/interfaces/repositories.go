package interfaces

import (
	"context"
	"time"

	"blog-server/internal/models"

	"github.com/google/uuid"
)

// UserUpdate lists the user columns to change. Nil fields are left untouched.
type UserUpdate struct {
	Email    *string
	Role     *models.Role
	IsStaff  *bool
	IsActive *bool
}

// UserRepository persists users and their profiles.
type UserRepository interface {
	// CreateUser inserts the user and an empty profile in one transaction.
	// Returns models.ErrUsernameTaken or models.ErrEmailTaken on unique violations.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID returns models.ErrUserNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUserByEmail compares emails case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserWithProfile(ctx context.Context, id uuid.UUID) (*models.UserWithProfile, error)

	// UpdateUserFields applies upd and re-ensures the profile row in the same transaction.
	UpdateUserFields(ctx context.Context, id uuid.UUID, upd UserUpdate) error

	// SetAdminFlags promotes (admin=true) or demotes the given users and returns
	// how many rows changed. Demotion never touches superusers.
	SetAdminFlags(ctx context.Context, ids []uuid.UUID, admin bool) (int64, error)

	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateProfile(ctx context.Context, profile *models.Profile) error

	// ListUsers filters by a substring of username or email, ordered by username.
	ListUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error)
	CountUsers(ctx context.Context, query string) (int64, error)

	// DeleteUser removes the user. Posts and the profile cascade, comment authors become NULL.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// PostRepository persists posts.
type PostRepository interface {
	// CreatePost returns models.ErrDuplicateTitle when the title is taken.
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	// UpdatePost rewrites the editable fields in a single statement; a title
	// collision leaves the row unchanged and returns models.ErrDuplicateTitle.
	UpdatePost(ctx context.Context, id uuid.UUID, fields models.PostFields) (*models.Post, error)
	// DeletePost cascades to the post's comments.
	DeletePost(ctx context.Context, id uuid.UUID) error
	// ListPosts returns posts newest first.
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
}

// CommentRepository persists comments.
type CommentRepository interface {
	// CreateComment returns models.ErrPostNotFound when the post is gone.
	CreateComment(ctx context.Context, comment *models.Comment) error
	// ListCommentsByPost returns comments oldest first.
	ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
}

// TokenRepository tracks issued session tokens (e.g. in Redis).
type TokenRepository interface {
	SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error
	// DeleteTokens removes the given token UUIDs and returns how many keys were deleted.
	DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error)
	// Returns models.ErrTokenNotFound if the token is unknown or expired.
	GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error)
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)
	DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ResetTokenRepository stores single-use password reset tokens.
type ResetTokenRepository interface {
	// StoreResetToken saves token for userID and invalidates the user's previous token.
	StoreResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	// PeekResetToken returns the token owner without consuming it.
	PeekResetToken(ctx context.Context, token string) (uuid.UUID, error)
	// ConsumeResetToken atomically reads and deletes the token.
	// Returns models.ErrResetTokenInvalid if it is unknown, expired or already used.
	ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error)
}
