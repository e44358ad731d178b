package mocks

import (
	"context"
	"time"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// UserRepository mock
type UserRepository struct {
	mock.Mock
}

var _ interfaces.UserRepository = (*UserRepository)(nil)

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *UserRepository) GetUserWithProfile(ctx context.Context, id uuid.UUID) (*models.UserWithProfile, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.UserWithProfile)
	return u, args.Error(1)
}
func (m *UserRepository) UpdateUserFields(ctx context.Context, id uuid.UUID, upd interfaces.UserUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}
func (m *UserRepository) SetAdminFlags(ctx context.Context, ids []uuid.UUID, admin bool) (int64, error) {
	args := m.Called(ctx, ids, admin)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
func (m *UserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}
func (m *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
func (m *UserRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}
func (m *UserRepository) ListUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, query, limit, offset)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}
func (m *UserRepository) CountUsers(ctx context.Context, query string) (int64, error) {
	args := m.Called(ctx, query)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
func (m *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// PostRepository mock
type PostRepository struct {
	mock.Mock
}

var _ interfaces.PostRepository = (*PostRepository)(nil)

func (m *PostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}
func (m *PostRepository) GetPostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}
func (m *PostRepository) UpdatePost(ctx context.Context, id uuid.UUID, fields models.PostFields) (*models.Post, error) {
	args := m.Called(ctx, id, fields)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}
func (m *PostRepository) DeletePost(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *PostRepository) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	args := m.Called(ctx, limit, offset)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}
func (m *PostRepository) CountPosts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// CommentRepository mock
type CommentRepository struct {
	mock.Mock
}

var _ interfaces.CommentRepository = (*CommentRepository)(nil)

func (m *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}
func (m *CommentRepository) ListCommentsByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Error(1)
}

// TokenRepository mock
type TokenRepository struct {
	mock.Mock
}

var _ interfaces.TokenRepository = (*TokenRepository)(nil)

func (m *TokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	args := m.Called(ctx, userID, td)
	return args.Error(0)
}
func (m *TokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	args := m.Called(ctx, userID, accessUUID, refreshUUID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
func (m *TokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, accessUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *TokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *TokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// ResetTokenRepository mock
type ResetTokenRepository struct {
	mock.Mock
}

var _ interfaces.ResetTokenRepository = (*ResetTokenRepository)(nil)

func (m *ResetTokenRepository) StoreResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	args := m.Called(ctx, token, userID, ttl)
	return args.Error(0)
}
func (m *ResetTokenRepository) PeekResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
func (m *ResetTokenRepository) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}
