package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"blog-server/internal/config"
	"blog-server/internal/interfaces"
	"blog-server/internal/models"
	"blog-server/internal/policy"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenIssuer = "blog-server"

var _ AuthService = (*authServiceImpl)(nil)

type authServiceImpl struct {
	userRepo  interfaces.UserRepository
	tokenRepo interfaces.TokenRepository
	validator PasswordValidator
	cfg       *config.Config
	logger    *zap.Logger
}

// NewAuthService creates the AuthService. A nil validator means the default rules.
func NewAuthService(userRepo interfaces.UserRepository, tokenRepo interfaces.TokenRepository, validator PasswordValidator, cfg *config.Config, logger *zap.Logger) AuthService {
	if validator == nil {
		validator = NewDefaultPasswordValidator()
	}
	return &authServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		validator: validator,
		cfg:       cfg,
		logger:    logger.Named("AuthService"),
	}
}

// Register creates a regular, active user together with an empty profile.
func (s *authServiceImpl) Register(ctx context.Context, actor models.Identity, in RegisterInput) (*models.User, error) {
	if models.IsAuthenticated(actor) {
		return nil, models.ErrAlreadyAuthenticated
	}

	fe := models.FieldErrors{}
	username, email := normalizeIdentity(in.Username, in.Email, fe)
	logFields := []zap.Field{zap.String("username", username), zap.String("email", email)}
	if err := fe.Err(); err != nil {
		s.logger.Warn("Registration rejected: invalid fields", append(logFields, zap.Error(err))...)
		return nil, err
	}
	if err := checkPasswords(s.validator, in.Password, in.PasswordConfirmation, username); err != nil {
		s.logger.Warn("Registration rejected: password", append(logFields, zap.Error(err))...)
		return nil, err
	}

	// Предварительная проверка; окончательно уникальность обеспечивает БД
	if err := s.ensureIdentityFree(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password, s.cfg.PasswordPepper)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleRegular,
		IsActive:     true,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

func (s *authServiceImpl) ensureIdentityFree(ctx context.Context, username, email string) error {
	if _, err := s.userRepo.GetUserByUsername(ctx, username); err == nil {
		s.logger.Warn("Registration attempt for existing username", zap.String("username", username))
		return models.ErrUsernameTaken
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return fmt.Errorf("error checking existing username: %w", err)
	}
	if _, err := s.userRepo.GetUserByEmail(ctx, email); err == nil {
		s.logger.Warn("Registration attempt for existing email", zap.String("email", email))
		return models.ErrEmailTaken
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return fmt.Errorf("error checking existing email: %w", err)
	}
	return nil
}

// lookupLoginUser treats an identifier with "@" as an email first. Usernames may
// contain "@" too, so a miss falls back to the username lookup.
func (s *authServiceImpl) lookupLoginUser(ctx context.Context, identifier string) (*models.User, error) {
	if !strings.Contains(identifier, "@") {
		return s.userRepo.GetUserByUsername(ctx, identifier)
	}
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(identifier))
	if errors.Is(err, models.ErrUserNotFound) {
		return s.userRepo.GetUserByUsername(ctx, identifier)
	}
	return user, err
}

// Login checks credentials, then the active flag, then issues tokens.
func (s *authServiceImpl) Login(ctx context.Context, actor models.Identity, identifier, password string) (*LoginResult, error) {
	if models.IsAuthenticated(actor) {
		return nil, models.ErrAlreadyAuthenticated
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}
	log := s.logger.With(zap.String("identifier", identifier))
	log.Info("Login attempt")

	user, err := s.lookupLoginUser(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Warn("Login failed: user not found")
			return nil, models.ErrInvalidCredentials
		}
		log.Error("Login failed: error getting user from repository", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		log.Warn("Login failed: invalid password", zap.String("userID", user.ID.String()))
		return nil, models.ErrInvalidCredentials
	}
	if !user.IsActive {
		log.Warn("Login failed: account is inactive", zap.String("userID", user.ID.String()))
		return nil, models.ErrInactiveAccount
	}

	td, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		log.Warn("Failed to record last login", zap.String("userID", user.ID.String()), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	log.Info("User logged in successfully", zap.String("userID", user.ID.String()))
	return &LoginResult{User: user, Tokens: td}, nil
}

// Logout удаляет токены; отсутствие токенов не является ошибкой.
func (s *authServiceImpl) Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshToken string) error {
	refreshUUID := ""
	if refreshToken != "" {
		claims := &models.Claims{}
		if _, _, err := jwt.NewParser().ParseUnverified(refreshToken, claims); err == nil && claims.UserID == userID {
			refreshUUID = claims.ID
		} else {
			s.logger.Debug("Ignoring unusable refresh token on logout", zap.String("userID", userID.String()))
		}
	}

	log := s.logger.With(zap.String("userID", userID.String()), zap.String("accessUUID", accessUUID), zap.String("refreshUUID", refreshUUID))
	deleted, err := s.tokenRepo.DeleteTokens(ctx, userID, accessUUID, refreshUUID)
	if err != nil {
		log.Error("Failed to delete tokens during logout", zap.Error(err))
		return nil
	}
	log.Info("User logged out", zap.Int64("deletedCount", deleted))
	return nil
}

// Refresh rotates the token pair. The user is reloaded, so a deactivated
// account cannot refresh.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh attempt with unusable token", zap.Error(err))
		return nil, err
	}
	log := s.logger.With(zap.String("userID", claims.UserID.String()), zap.String("refreshUUID", claims.ID))

	userID, err := s.tokenRepo.GetUserIDByRefreshUUID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			log.Warn("Refresh attempt with revoked token")
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error checking refresh token existence: %w", err)
	}
	if userID != claims.UserID {
		log.Error("Refresh token user ID mismatch", zap.String("storedUserID", userID.String()))
		return nil, models.ErrTokenInvalid
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to load user for refresh: %w", err)
	}
	if !user.IsActive {
		log.Warn("Refresh attempt for inactive account")
		return nil, models.ErrInactiveAccount
	}

	if _, err := s.tokenRepo.DeleteTokens(ctx, userID, "", claims.ID); err != nil {
		log.Error("Failed to delete old refresh token", zap.Error(err))
	}
	td, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	log.Info("Token refreshed successfully")
	return td, nil
}

// VerifyAccessToken checks signature, expiry and that the token was not revoked.
func (s *authServiceImpl) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if _, err := s.tokenRepo.GetUserIDByAccessUUID(ctx, claims.ID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Debug("Access token not found in store (revoked/logged out)", zap.String("accessUUID", claims.ID))
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error checking access token existence: %w", err)
	}
	return claims, nil
}

func (s *authServiceImpl) ResolveIdentity(ctx context.Context, tokenString string) (models.Identity, *models.Claims, error) {
	if tokenString == "" {
		return models.Anonymous{}, nil, nil
	}
	claims, err := s.VerifyAccessToken(ctx, tokenString)
	if err != nil {
		return models.Anonymous{}, nil, err
	}
	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("User from valid token not found in DB", zap.String("userID", claims.UserID.String()))
			return models.Anonymous{}, nil, models.ErrTokenInvalid
		}
		return models.Anonymous{}, nil, fmt.Errorf("failed to load user for token: %w", err)
	}
	if !user.IsActive {
		s.logger.Debug("Token belongs to inactive account, treating as anonymous", zap.String("userID", user.ID.String()))
		return models.Anonymous{}, nil, nil
	}
	return models.Authenticated{User: user}, claims, nil
}

func (s *authServiceImpl) GetMe(ctx context.Context, actor models.Identity) (*models.UserWithProfile, error) {
	user, ok := models.UserOf(actor)
	if !ok || !policy.Can(actor, policy.ViewProfile, nil) {
		return nil, models.ErrAuthRequired
	}
	return s.userRepo.GetUserWithProfile(ctx, user.ID)
}

func (s *authServiceImpl) UpdateProfile(ctx context.Context, actor models.Identity, bio, location string) (*models.Profile, error) {
	user, ok := models.UserOf(actor)
	if !ok {
		return nil, models.ErrAuthRequired
	}
	profile := &models.Profile{
		UserID:   user.ID,
		Bio:      strings.TrimSpace(bio),
		Location: strings.TrimSpace(location),
	}
	if utf8.RuneCountInString(profile.Location) > models.MaxLocationLength {
		fe := models.FieldErrors{}
		fe.Add("location", fmt.Sprintf("Ensure this value has at most %d characters.", models.MaxLocationLength))
		return nil, fe
	}
	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", zap.String("userID", user.ID.String()))
	return profile, nil
}

func (s *authServiceImpl) parseToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		}
		return nil, models.ErrTokenInvalid
	}
	if !token.Valid || claims.ID == "" || claims.UserID == uuid.Nil {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

// issueTokens signs a new pair and records both UUIDs in the token store.
func (s *authServiceImpl) issueTokens(ctx context.Context, user *models.User) (*models.TokenDetails, error) {
	td, err := s.createTokens(user)
	if err != nil {
		s.logger.Error("Failed to create tokens", zap.String("userID", user.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to create tokens: %w", err)
	}
	if err := s.tokenRepo.SetToken(ctx, user.ID, td); err != nil {
		return nil, fmt.Errorf("failed to save token details: %w", err)
	}
	return td, nil
}

func (s *authServiceImpl) createTokens(user *models.User) (*models.TokenDetails, error) {
	now := time.Now()
	role := models.RoleRegular
	if user.IsAdmin() {
		role = models.RoleAdmin
	}

	td := &models.TokenDetails{
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires:   now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}

	sign := func(id string, expires int64) (string, error) {
		claims := &models.Claims{
			UserID: user.ID,
			Role:   role,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        id,
				Subject:   user.ID.String(),
				Issuer:    tokenIssuer,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(time.Unix(expires, 0)),
			},
		}
		return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	}

	var err error
	if td.AccessToken, err = sign(td.AccessUUID, td.AtExpires); err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	if td.RefreshToken, err = sign(td.RefreshUUID, td.RtExpires); err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return td, nil
}
