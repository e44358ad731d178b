package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_lower_key"
)

const userColumns = `id, username, email, password_hash, role, is_staff, is_superuser, is_active, last_login_at, created_at, updated_at`

const ensureProfileQuery = `INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

type pgUserRepository struct {
	db     interfaces.TxDB
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db interfaces.TxDB, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

// CreateUser inserts a new user and its profile in one transaction.
func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	logFields := []zap.Field{zap.String("username", user.Username), zap.String("email", user.Email)}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction for user creation", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if user.Role == "" {
		user.Role = models.RoleRegular
	}

	query := `INSERT INTO users (username, email, password_hash, role, is_staff, is_superuser, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", append(logFields, zap.String("query", query))...)
	err = tx.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role, user.IsStaff, user.IsSuperuser, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if mapped := r.mapUniqueViolation(err, logFields); mapped != nil {
			return mapped
		}
		r.logger.Error("Failed to create user in postgres", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}

	r.logger.Debug("Executing query", zap.String("query", ensureProfileQuery), zap.String("userID", user.ID.String()))
	if _, err = tx.Exec(ctx, ensureProfileQuery, user.ID); err != nil {
		r.logger.Error("Failed to create profile for new user", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create profile: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		if mapped := r.mapUniqueViolation(err, logFields); mapped != nil {
			return mapped
		}
		r.logger.Error("Failed to commit user creation", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to commit user creation: %w", err)
	}

	r.logger.Info("User created successfully", zap.String("userID", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// mapUniqueViolation converts username/email unique violations into domain errors.
func (r *pgUserRepository) mapUniqueViolation(err error, logFields []zap.Field) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case usernameConstraint:
		r.logger.Warn("Attempted to create duplicate user by username", logFields...)
		return models.ErrUsernameTaken
	case emailConstraint:
		r.logger.Warn("Attempted to create duplicate user by email", logFields...)
		return models.ErrEmailTaken
	default:
		r.logger.Warn("Unique constraint violation on users", append(logFields, zap.String("constraint", pgErr.ConstraintName))...)
		return models.ErrUsernameTaken
	}
}

func (r *pgUserRepository) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	r.logger.Debug("Executing query", zap.String("query", query), zap.Any("arg", arg))

	user := &models.User{}
	if err := pgxscan.Get(ctx, r.db, user, query, arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user from postgres", zap.String("where", where), zap.Error(err))
		return nil, fmt.Errorf("failed to get user from postgres: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getUser(ctx, "id = $1", id)
}

// GetUserByUsername retrieves a user by their username.
func (r *pgUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, "username = $1", username)
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (r *pgUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, "LOWER(email) = LOWER($1)", email)
}

// GetUserWithProfile returns the user joined with its profile.
func (r *pgUserRepository) GetUserWithProfile(ctx context.Context, id uuid.UUID) (*models.UserWithProfile, error) {
	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	query := `SELECT user_id, bio, location FROM profiles WHERE user_id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", id.String()))
	result := &models.UserWithProfile{User: *user}
	err = pgxscan.Get(ctx, r.db, &result.Profile, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Профиль создается при регистрации; отсутствие означает старые данные.
			r.logger.Warn("Profile row missing for user", zap.String("userID", id.String()))
			result.Profile = models.Profile{UserID: id}
			return result, nil
		}
		r.logger.Error("Failed to get profile from postgres", zap.String("userID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return result, nil
}

// UpdateUserFields updates the given columns and re-ensures the profile.
func (r *pgUserRepository) UpdateUserFields(ctx context.Context, id uuid.UUID, upd interfaces.UserUpdate) error {
	queryBase := "UPDATE users SET updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{}
	argID := 1

	if upd.Email != nil {
		queryBase += fmt.Sprintf(", email = $%d", argID)
		args = append(args, *upd.Email)
		argID++
	}
	if upd.Role != nil {
		queryBase += fmt.Sprintf(", role = $%d", argID)
		args = append(args, *upd.Role)
		argID++
	}
	if upd.IsStaff != nil {
		queryBase += fmt.Sprintf(", is_staff = $%d", argID)
		args = append(args, *upd.IsStaff)
		argID++
	}
	if upd.IsActive != nil {
		queryBase += fmt.Sprintf(", is_active = $%d", argID)
		args = append(args, *upd.IsActive)
		argID++
	}
	query := queryBase + fmt.Sprintf(" WHERE id = $%d", argID)
	args = append(args, id)
	logFields := []zap.Field{zap.String("userID", id.String())}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	r.logger.Debug("Executing query", append(logFields, zap.String("query", query))...)
	cmdTag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if mapped := r.mapUniqueViolation(err, logFields); mapped != nil {
			return mapped
		}
		r.logger.Error("Failed to update user fields", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to update user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}

	if _, err = tx.Exec(ctx, ensureProfileQuery, id); err != nil {
		r.logger.Error("Failed to ensure profile after user update", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to ensure profile: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		if mapped := r.mapUniqueViolation(err, logFields); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to commit user update: %w", err)
	}
	r.logger.Info("User fields updated", logFields...)
	return nil
}

// SetAdminFlags promotes or demotes users in bulk, skipping rows already in the target state.
func (r *pgUserRepository) SetAdminFlags(ctx context.Context, ids []uuid.UUID, admin bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var query string
	if admin {
		query = `UPDATE users SET role = 'admin', is_staff = TRUE, updated_at = CURRENT_TIMESTAMP
			WHERE id = ANY($1::uuid[]) AND NOT (role = 'admin' AND is_staff)`
	} else {
		query = `UPDATE users SET role = 'regular', is_staff = FALSE, updated_at = CURRENT_TIMESTAMP
			WHERE id = ANY($1::uuid[]) AND NOT is_superuser AND NOT (role = 'regular' AND NOT is_staff)`
	}
	r.logger.Debug("Executing query", zap.String("query", query), zap.Int("count", len(ids)), zap.Bool("admin", admin))

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}
	cmdTag, err := r.db.Exec(ctx, query, idStrs)
	if err != nil {
		r.logger.Error("Failed to set admin flags", zap.Bool("admin", admin), zap.Error(err))
		return 0, fmt.Errorf("failed to set admin flags: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *pgUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", id.String()))
	cmdTag, err := r.db.Exec(ctx, query, hash, id)
	if err != nil {
		r.logger.Error("Failed to update password hash", zap.String("userID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin records a successful login.
func (r *pgUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", id.String()))
	if _, err := r.db.Exec(ctx, query, at, id); err != nil {
		r.logger.Error("Failed to update last login", zap.String("userID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdateProfile upserts the profile row.
func (r *pgUserRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	query := `INSERT INTO profiles (user_id, bio, location) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET bio = EXCLUDED.bio, location = EXCLUDED.location`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", profile.UserID.String()))
	if _, err := r.db.Exec(ctx, query, profile.UserID, profile.Bio, profile.Location); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return models.ErrUserNotFound
		}
		r.logger.Error("Failed to update profile", zap.String("userID", profile.UserID.String()), zap.Error(err))
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func searchPattern(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	// Экранируем спецсимволы LIKE
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(q) + "%"
}

// ListUsers returns a page of users, optionally filtered by username or email.
func (r *pgUserRepository) ListUsers(ctx context.Context, q string, limit, offset int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1 = '' OR username ILIKE $1 OR email ILIKE $1)
		ORDER BY username ASC
		LIMIT $2 OFFSET $3`
	pattern := searchPattern(q)
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("search", q), zap.Int("limit", limit), zap.Int("offset", offset))

	users := make([]models.User, 0)
	if err := pgxscan.Select(ctx, r.db, &users, query, pattern, limit, offset); err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CountUsers counts users matching the same filter as ListUsers.
func (r *pgUserRepository) CountUsers(ctx context.Context, q string) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE ($1 = '' OR username ILIKE $1 OR email ILIKE $1)`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("search", q))
	var count int64
	if err := r.db.QueryRow(ctx, query, searchPattern(q)).Scan(&count); err != nil {
		r.logger.Error("Failed to count users", zap.Error(err))
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// DeleteUser removes a user; foreign keys take care of dependent rows.
func (r *pgUserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("userID", id.String()))
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete user", zap.String("userID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	r.logger.Info("User deleted", zap.String("userID", id.String()))
	return nil
}
