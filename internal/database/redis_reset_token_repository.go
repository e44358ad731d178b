package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.ResetTokenRepository = (*redisResetTokenRepository)(nil)

const (
	resetTokenPrefix     = "password_reset:"
	resetTokenUserPrefix = "password_reset_user:"

	storeResetTokenRetries = 25
)

type redisResetTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisResetTokenRepository creates a Redis-backed store for password reset tokens.
func NewRedisResetTokenRepository(client *redis.Client, logger *zap.Logger) interfaces.ResetTokenRepository {
	return &redisResetTokenRepository{
		client: client,
		logger: logger.Named("RedisResetTokenRepo"),
	}
}

// StoreResetToken keeps only the newest token per user. The user index is
// WATCHed, so a concurrent request that swaps it first forces a retry.
func (r *redisResetTokenRepository) StoreResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	userKey := resetTokenUserPrefix + userID.String()
	log := r.logger.With(zap.String("userID", userID.String()))

	var prev string
	swap := func(tx *redis.Tx) error {
		var err error
		prev, err = tx.Get(ctx, userKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read previous reset token: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if prev != "" {
				pipe.Del(ctx, resetTokenPrefix+prev)
			}
			pipe.Set(ctx, resetTokenPrefix+token, userID.String(), ttl)
			pipe.Set(ctx, userKey, token, ttl)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < storeResetTokenRetries; attempt++ {
		err = r.client.Watch(ctx, swap, userKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		log.Debug("Reset token index changed concurrently, retrying", zap.Int("attempt", attempt+1))
	}
	if err != nil {
		log.Error("Failed to store reset token", zap.Error(err))
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	log.Debug("Reset token stored", zap.Duration("ttl", ttl), zap.Bool("replacedPrevious", prev != ""))
	return nil
}

// PeekResetToken returns models.ErrResetTokenInvalid for unknown or expired tokens.
func (r *redisResetTokenRepository) PeekResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, models.ErrResetTokenInvalid
	}
	val, err := r.client.Get(ctx, resetTokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, models.ErrResetTokenInvalid
		}
		r.logger.Error("Failed to read reset token", zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to read reset token: %w", err)
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		r.logger.Error("Corrupted userID stored for reset token", zap.String("value", val), zap.Error(err))
		return uuid.Nil, models.ErrResetTokenInvalid
	}
	return userID, nil
}

// ConsumeResetToken uses GETDEL so two concurrent confirmations cannot both succeed.
func (r *redisResetTokenRepository) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, models.ErrResetTokenInvalid
	}
	val, err := r.client.GetDel(ctx, resetTokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Reset token not found or already used")
			return uuid.Nil, models.ErrResetTokenInvalid
		}
		r.logger.Error("Failed to consume reset token", zap.Error(err))
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		r.logger.Error("Corrupted userID stored for reset token", zap.String("value", val), zap.Error(err))
		return uuid.Nil, models.ErrResetTokenInvalid
	}
	// Индекс пользователя больше не нужен
	if err := r.client.Del(ctx, resetTokenUserPrefix+userID.String()).Err(); err != nil {
		r.logger.Warn("Failed to clear reset token index", zap.String("userID", userID.String()), zap.Error(err))
	}
	return userID, nil
}
