package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"blog-server/internal/config"
	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PasswordResetConfirmPath is the site page that consumes reset links.
const PasswordResetConfirmPath = "/auth/password/reset/confirm"

// PasswordResetService implements the forgotten-password flow.
type PasswordResetService interface {
	// RequestReset mails a single-use link when an active account has the email.
	// The result is the same whether or not such an account exists.
	RequestReset(ctx context.Context, email string) error
	// ConfirmReset validates the new password, consumes the token and revokes all sessions.
	ConfirmReset(ctx context.Context, token, password, confirmation string) error
}

var _ PasswordResetService = (*passwordResetServiceImpl)(nil)

type passwordResetServiceImpl struct {
	userRepo  interfaces.UserRepository
	resetRepo interfaces.ResetTokenRepository
	tokenRepo interfaces.TokenRepository
	mailer    interfaces.Mailer
	validator PasswordValidator
	cfg       *config.Config
	logger    *zap.Logger
	newToken  func() string
}

func NewPasswordResetService(
	userRepo interfaces.UserRepository,
	resetRepo interfaces.ResetTokenRepository,
	tokenRepo interfaces.TokenRepository,
	mailer interfaces.Mailer,
	validator PasswordValidator,
	cfg *config.Config,
	logger *zap.Logger,
) PasswordResetService {
	if validator == nil {
		validator = NewDefaultPasswordValidator()
	}
	return &passwordResetServiceImpl{
		userRepo:  userRepo,
		resetRepo: resetRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		validator: validator,
		cfg:       cfg,
		logger:    logger.Named("PasswordResetService"),
		newToken:  uuid.NewString,
	}
}

func (s *passwordResetServiceImpl) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !isValidEmail(email) {
		fe := models.FieldErrors{}
		fe.Add("email", "Enter a valid email address.")
		return fe
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive {
		s.logger.Info("Password reset requested for inactive account", zap.String("userID", user.ID.String()))
		return nil
	}

	log := s.logger.With(zap.String("userID", user.ID.String()))
	token := s.newToken()
	if err := s.resetRepo.StoreResetToken(ctx, token, user.ID, s.cfg.PasswordResetTTL); err != nil {
		return err
	}

	msg := models.Mail{
		To:      user.Email,
		Subject: "Password reset",
		Body:    s.resetMailBody(user.Username, token),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		// Подробности транспорта только в лог
		log.Error("Failed to send password reset email", zap.Error(err))
		return models.ErrMailDelivery
	}
	log.Info("Password reset email sent")
	return nil
}

func (s *passwordResetServiceImpl) resetMailBody(username, token string) string {
	link := strings.TrimRight(s.cfg.SiteURL, "/") + PasswordResetConfirmPath + "?token=" + url.QueryEscape(token)
	return fmt.Sprintf(
		"Hi %s,\n\nYou're receiving this email because a password reset was requested for your account.\n\n"+
			"Please follow the link below to choose a new password:\n%s\n\n"+
			"The link expires in %s and can be used once. If you didn't ask for this, ignore this email.\n",
		username, link, s.cfg.PasswordResetTTL,
	)
}

func (s *passwordResetServiceImpl) ConfirmReset(ctx context.Context, token, password, confirmation string) error {
	userID, err := s.resetRepo.PeekResetToken(ctx, token)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.ErrResetTokenInvalid
		}
		return err
	}

	// Пароль проверяется до погашения токена, чтобы ошибка ввода не сжигала ссылку
	if err := checkPasswords(s.validator, password, confirmation, user.Username); err != nil {
		return err
	}

	consumedID, err := s.resetRepo.ConsumeResetToken(ctx, token)
	if err != nil {
		return err
	}
	if consumedID != userID {
		s.logger.Error("Reset token owner changed between peek and consume",
			zap.String("peekedUserID", userID.String()), zap.String("consumedUserID", consumedID.String()))
		return models.ErrResetTokenInvalid
	}

	hash, err := hashPassword(password, s.cfg.PasswordPepper)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	log := s.logger.With(zap.String("userID", userID.String()))
	if n, err := s.tokenRepo.DeleteTokensByUserID(ctx, userID); err != nil {
		log.Error("Failed to revoke sessions after password reset", zap.Error(err))
	} else {
		log.Info("Password reset completed", zap.Int64("revokedTokens", n))
	}
	return nil
}
