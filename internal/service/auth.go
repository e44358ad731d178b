package service

import (
	"context"

	"blog-server/internal/models"

	"github.com/google/uuid"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
}

// LoginResult is a successful login: the user and a fresh token pair.
type LoginResult struct {
	User   *models.User
	Tokens *models.TokenDetails
}

// AuthService defines registration, session and profile operations.
type AuthService interface {
	// Register returns models.ErrAlreadyAuthenticated when actor is already signed in.
	Register(ctx context.Context, actor models.Identity, in RegisterInput) (*models.User, error)
	// Login accepts a username, or an email when identifier contains '@'.
	Login(ctx context.Context, actor models.Identity, identifier, password string) (*LoginResult, error)
	// Logout never fails: missing or already revoked tokens are fine.
	Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
	// ResolveIdentity maps a bearer token to the caller. An empty token is Anonymous,
	// an inactive account is Anonymous as well.
	ResolveIdentity(ctx context.Context, tokenString string) (models.Identity, *models.Claims, error)

	GetMe(ctx context.Context, actor models.Identity) (*models.UserWithProfile, error)
	UpdateProfile(ctx context.Context, actor models.Identity, bio, location string) (*models.Profile, error)
}
