package service

import (
	"context"
	"fmt"
	"strings"

	"blog-server/internal/config"
	"blog-server/internal/interfaces"
	"blog-server/internal/models"
	"blog-server/internal/policy"
	"blog-server/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UsersPerPage is the admin user listing page size.
const UsersPerPage = 25

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users []models.User `json:"users"`
	Page  utils.Page    `json:"page"`
}

// UserAdminService groups the account administration actions.
type UserAdminService interface {
	// SetRole promotes or revokes a single user and reports whether anything changed.
	SetRole(ctx context.Context, actor models.Identity, targetID uuid.UUID, role models.Role) (bool, error)
	// SetRoles is the batch form of SetRole. It returns how many users changed.
	SetRoles(ctx context.Context, actor models.Identity, ids []uuid.UUID, role models.Role) (int64, error)
	SetActive(ctx context.Context, actor models.Identity, targetID uuid.UUID, active bool) error
	DeleteUser(ctx context.Context, actor models.Identity, targetID uuid.UUID) error
	ListUsers(ctx context.Context, actor models.Identity, query string, page int) (*UserPage, error)
	// CreateSuperuser is used by the admin CLI; there is no acting identity.
	CreateSuperuser(ctx context.Context, in RegisterInput) (*models.User, error)
}

var _ UserAdminService = (*userAdminServiceImpl)(nil)

type userAdminServiceImpl struct {
	userRepo  interfaces.UserRepository
	tokenRepo interfaces.TokenRepository
	validator PasswordValidator
	cfg       *config.Config
	logger    *zap.Logger
}

func NewUserAdminService(userRepo interfaces.UserRepository, tokenRepo interfaces.TokenRepository, validator PasswordValidator, cfg *config.Config, logger *zap.Logger) UserAdminService {
	if validator == nil {
		validator = NewDefaultPasswordValidator()
	}
	return &userAdminServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		validator: validator,
		cfg:       cfg,
		logger:    logger.Named("UserAdminService"),
	}
}

// BatchRoleMessage is the status line shown after a batch role change.
func BatchRoleMessage(count int64, role models.Role) string {
	if role == models.RoleAdmin {
		return fmt.Sprintf("%d user(s) promoted to admin.", count)
	}
	return fmt.Sprintf("%d user(s) demoted from admin.", count)
}

func roleAction(role models.Role) policy.Action {
	if role == models.RoleAdmin {
		return policy.PromoteUser
	}
	return policy.RevokeUser
}

// authorize returns the acting user or the matching access error.
func authorize(actor models.Identity, action policy.Action) (*models.User, error) {
	user, ok := models.UserOf(actor)
	if !ok {
		return nil, models.ErrAuthRequired
	}
	if !policy.Can(actor, action, nil) {
		return nil, models.ErrForbidden
	}
	return user, nil
}

func (s *userAdminServiceImpl) authorizeRoleChange(actor models.Identity, role models.Role) (*models.User, error) {
	if _, err := models.ParseRole(string(role)); err != nil {
		return nil, err
	}
	user, err := authorize(actor, roleAction(role))
	if err != nil {
		return nil, err
	}
	// Суперпользователь всегда админ, но проверяем явно
	if !user.IsAdmin() {
		return nil, models.ErrForbidden
	}
	return user, nil
}

func (s *userAdminServiceImpl) SetRole(ctx context.Context, actor models.Identity, targetID uuid.UUID, role models.Role) (bool, error) {
	admin, err := s.authorizeRoleChange(actor, role)
	if err != nil {
		return false, err
	}
	log := s.logger.With(zap.String("actorID", admin.ID.String()), zap.String("targetID", targetID.String()), zap.Stringer("role", role))

	target, err := s.userRepo.GetUserByID(ctx, targetID)
	if err != nil {
		return false, err
	}

	promote := role == models.RoleAdmin
	if target.HasAdminFlags(promote) {
		log.Debug("Role change is a no-op: target already has the role")
		return false, nil
	}
	if !promote && target.IsSuperuser {
		log.Info("Refusing to demote a superuser, treating as no-op")
		return false, nil
	}

	upd := interfaces.UserUpdate{Role: &role, IsStaff: &promote}
	if err := s.userRepo.UpdateUserFields(ctx, targetID, upd); err != nil {
		log.Error("Failed to change role", zap.Error(err))
		return false, err
	}
	log.Info("User role changed")
	return true, nil
}

func (s *userAdminServiceImpl) SetRoles(ctx context.Context, actor models.Identity, ids []uuid.UUID, role models.Role) (int64, error) {
	admin, err := s.authorizeRoleChange(actor, role)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.userRepo.SetAdminFlags(ctx, ids, role == models.RoleAdmin)
	if err != nil {
		s.logger.Error("Batch role change failed", zap.String("actorID", admin.ID.String()), zap.Error(err))
		return 0, err
	}
	s.logger.Info("Batch role change applied",
		zap.String("actorID", admin.ID.String()),
		zap.Stringer("role", role),
		zap.Int("requested", len(ids)),
		zap.Int64("changed", n),
	)
	return n, nil
}

// SetActive toggles the account. Deactivation revokes every session of the target.
func (s *userAdminServiceImpl) SetActive(ctx context.Context, actor models.Identity, targetID uuid.UUID, active bool) error {
	admin, err := authorize(actor, policy.ManageUsers)
	if err != nil {
		return err
	}
	target, err := s.userRepo.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsSuperuser && !admin.IsSuperuser {
		return models.ErrForbidden
	}
	if target.IsActive == active {
		return nil
	}

	log := s.logger.With(zap.String("actorID", admin.ID.String()), zap.String("targetID", targetID.String()), zap.Bool("active", active))
	if err := s.userRepo.UpdateUserFields(ctx, targetID, interfaces.UserUpdate{IsActive: &active}); err != nil {
		log.Error("Failed to update active flag", zap.Error(err))
		return err
	}
	if !active {
		if n, err := s.tokenRepo.DeleteTokensByUserID(ctx, targetID); err != nil {
			log.Error("Failed to revoke sessions of deactivated user", zap.Error(err))
		} else {
			log.Info("Revoked sessions of deactivated user", zap.Int64("deletedCount", n))
		}
	}
	log.Info("User active flag changed")
	return nil
}

// DeleteUser removes the account. Posts go with it; comments stay with no author.
func (s *userAdminServiceImpl) DeleteUser(ctx context.Context, actor models.Identity, targetID uuid.UUID) error {
	admin, err := authorize(actor, policy.DeleteUser)
	if err != nil {
		return err
	}
	if admin.ID == targetID {
		return fmt.Errorf("%w: you cannot delete your own account", models.ErrForbidden)
	}
	log := s.logger.With(zap.String("actorID", admin.ID.String()), zap.String("targetID", targetID.String()))

	if err := s.userRepo.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	if _, err := s.tokenRepo.DeleteTokensByUserID(ctx, targetID); err != nil {
		log.Error("Failed to revoke sessions of deleted user", zap.Error(err))
	}
	log.Info("User deleted")
	return nil
}

func (s *userAdminServiceImpl) ListUsers(ctx context.Context, actor models.Identity, query string, page int) (*UserPage, error) {
	if _, err := authorize(actor, policy.ManageUsers); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	total, err := s.userRepo.CountUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	p := utils.Paginate(total, page, UsersPerPage)
	users, err := s.userRepo.ListUsers(ctx, query, p.PerPage, p.Offset)
	if err != nil {
		return nil, err
	}
	return &UserPage{Users: users, Page: p}, nil
}

func (s *userAdminServiceImpl) CreateSuperuser(ctx context.Context, in RegisterInput) (*models.User, error) {
	fe := models.FieldErrors{}
	username, email := normalizeIdentity(in.Username, in.Email, fe)
	if err := fe.Err(); err != nil {
		return nil, err
	}
	if err := checkPasswords(s.validator, in.Password, in.PasswordConfirmation, username); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password, s.cfg.PasswordPepper)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsStaff:      true,
		IsSuperuser:  true,
		IsActive:     true,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Superuser created", zap.String("userID", user.ID.String()), zap.String("username", username))
	return user, nil
}
