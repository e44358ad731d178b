package mocks

import (
	"context"

	"blog-server/internal/models"
	"blog-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// AuthService mock
type AuthService struct {
	mock.Mock
}

var _ service.AuthService = (*AuthService)(nil)

func (m *AuthService) Register(ctx context.Context, actor models.Identity, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, actor, in)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *AuthService) Login(ctx context.Context, actor models.Identity, identifier, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, actor, identifier, password)
	r, _ := args.Get(0).(*service.LoginResult)
	return r, args.Error(1)
}
func (m *AuthService) Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshToken string) error {
	args := m.Called(ctx, userID, accessUUID, refreshToken)
	return args.Error(0)
}
func (m *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	args := m.Called(ctx, refreshToken)
	td, _ := args.Get(0).(*models.TokenDetails)
	return td, args.Error(1)
}
func (m *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	args := m.Called(ctx, tokenString)
	c, _ := args.Get(0).(*models.Claims)
	return c, args.Error(1)
}
func (m *AuthService) ResolveIdentity(ctx context.Context, tokenString string) (models.Identity, *models.Claims, error) {
	args := m.Called(ctx, tokenString)
	id, _ := args.Get(0).(models.Identity)
	c, _ := args.Get(1).(*models.Claims)
	return id, c, args.Error(2)
}
func (m *AuthService) GetMe(ctx context.Context, actor models.Identity) (*models.UserWithProfile, error) {
	args := m.Called(ctx, actor)
	u, _ := args.Get(0).(*models.UserWithProfile)
	return u, args.Error(1)
}
func (m *AuthService) UpdateProfile(ctx context.Context, actor models.Identity, bio, location string) (*models.Profile, error) {
	args := m.Called(ctx, actor, bio, location)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

// ContentService mock
type ContentService struct {
	mock.Mock
}

var _ service.ContentService = (*ContentService)(nil)

func (m *ContentService) SubmitPost(ctx context.Context, actor models.Identity, fields models.PostFields) (*models.Post, error) {
	args := m.Called(ctx, actor, fields)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}
func (m *ContentService) EditPost(ctx context.Context, actor models.Identity, postID uuid.UUID, fields models.PostFields) (*models.Post, error) {
	args := m.Called(ctx, actor, postID, fields)
	p, _ := args.Get(0).(*models.Post)
	return p, args.Error(1)
}
func (m *ContentService) DeletePost(ctx context.Context, actor models.Identity, postID uuid.UUID) error {
	args := m.Called(ctx, actor, postID)
	return args.Error(0)
}
func (m *ContentService) AddComment(ctx context.Context, actor models.Identity, postID uuid.UUID, text string) (*models.Comment, error) {
	args := m.Called(ctx, actor, postID, text)
	c, _ := args.Get(0).(*models.Comment)
	return c, args.Error(1)
}
func (m *ContentService) GetPost(ctx context.Context, actor models.Identity, postID uuid.UUID) (*models.PostDetail, error) {
	args := m.Called(ctx, actor, postID)
	p, _ := args.Get(0).(*models.PostDetail)
	return p, args.Error(1)
}
func (m *ContentService) ListPosts(ctx context.Context, page int) (*service.PostPage, error) {
	args := m.Called(ctx, page)
	p, _ := args.Get(0).(*service.PostPage)
	return p, args.Error(1)
}
func (m *ContentService) LatestPosts(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]models.Post)
	return p, args.Error(1)
}

// UserAdminService mock
type UserAdminService struct {
	mock.Mock
}

var _ service.UserAdminService = (*UserAdminService)(nil)

func (m *UserAdminService) SetRole(ctx context.Context, actor models.Identity, targetID uuid.UUID, role models.Role) (bool, error) {
	args := m.Called(ctx, actor, targetID, role)
	return args.Bool(0), args.Error(1)
}
func (m *UserAdminService) SetRoles(ctx context.Context, actor models.Identity, ids []uuid.UUID, role models.Role) (int64, error) {
	args := m.Called(ctx, actor, ids, role)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
func (m *UserAdminService) SetActive(ctx context.Context, actor models.Identity, targetID uuid.UUID, active bool) error {
	args := m.Called(ctx, actor, targetID, active)
	return args.Error(0)
}
func (m *UserAdminService) DeleteUser(ctx context.Context, actor models.Identity, targetID uuid.UUID) error {
	args := m.Called(ctx, actor, targetID)
	return args.Error(0)
}
func (m *UserAdminService) ListUsers(ctx context.Context, actor models.Identity, query string, page int) (*service.UserPage, error) {
	args := m.Called(ctx, actor, query, page)
	p, _ := args.Get(0).(*service.UserPage)
	return p, args.Error(1)
}
func (m *UserAdminService) CreateSuperuser(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

// PasswordResetService mock
type PasswordResetService struct {
	mock.Mock
}

var _ service.PasswordResetService = (*PasswordResetService)(nil)

func (m *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}
func (m *PasswordResetService) ConfirmReset(ctx context.Context, token, password, confirmation string) error {
	args := m.Called(ctx, token, password, confirmation)
	return args.Error(0)
}

// ContactService mock
type ContactService struct {
	mock.Mock
}

var _ service.ContactService = (*ContactService)(nil)

func (m *ContactService) SendContact(ctx context.Context, actor models.Identity, in service.ContactInput) error {
	args := m.Called(ctx, actor, in)
	return args.Error(0)
}

// SiteService mock
type SiteService struct {
	mock.Mock
}

var _ service.SiteService = (*SiteService)(nil)

func (m *SiteService) Info() models.SiteInfo {
	args := m.Called()
	info, _ := args.Get(0).(models.SiteInfo)
	return info
}
