package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog-server/internal/interfaces"
	"blog-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.TokenRepository = (*redisTokenRepository)(nil)

// Key layout:
//
//	access_uuid:{uuid}  -> userID (TTL = access token lifetime)
//	refresh_uuid:{uuid} -> userID (TTL = refresh token lifetime)
//	user_tokens:{userID} = set of "access:{uuid}" / "refresh:{uuid}"
const (
	accessKeyPrefix  = "access_uuid:"
	refreshKeyPrefix = "refresh_uuid:"
	userTokensPrefix = "user_tokens:"
)

type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenRepository creates a new Redis-backed TokenRepository.
func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) interfaces.TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

func userTokensKey(userID uuid.UUID) string {
	return userTokensPrefix + userID.String()
}

// SetToken stores both token UUIDs and indexes them under the user.
func (r *redisTokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	now := time.Now()
	accessTTL := time.Unix(td.AtExpires, 0).Sub(now)
	refreshTTL := time.Unix(td.RtExpires, 0).Sub(now)
	userIDStr := userID.String()
	setKey := userTokensKey(userID)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, accessKeyPrefix+td.AccessUUID, userIDStr, accessTTL)
	pipe.Set(ctx, refreshKeyPrefix+td.RefreshUUID, userIDStr, refreshTTL)
	pipe.SAdd(ctx, setKey, "access:"+td.AccessUUID, "refresh:"+td.RefreshUUID)
	// Индекс живет не дольше самого долгого токена
	pipe.Expire(ctx, setKey, refreshTTL)

	r.logger.Debug("Storing token pair",
		zap.String("userID", userIDStr),
		zap.String("accessUUID", td.AccessUUID),
		zap.String("refreshUUID", td.RefreshUUID),
		zap.Duration("accessTTL", accessTTL),
		zap.Duration("refreshTTL", refreshTTL),
	)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to set token details in redis", zap.Error(err), zap.String("userID", userIDStr))
		return fmt.Errorf("failed to set token details in redis: %w", err)
	}
	return nil
}

// DeleteTokens removes the given token UUIDs. Empty UUIDs are skipped.
func (r *redisTokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	var keys []string
	var members []interface{}
	if accessUUID != "" {
		keys = append(keys, accessKeyPrefix+accessUUID)
		members = append(members, "access:"+accessUUID)
	}
	if refreshUUID != "" {
		keys = append(keys, refreshKeyPrefix+refreshUUID)
		members = append(members, "refresh:"+refreshUUID)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	log := r.logger.With(zap.String("userID", userID.String()), zap.Strings("keys", keys))
	log.Debug("Deleting tokens")

	pipe := r.client.TxPipeline()
	delCmd := pipe.Del(ctx, keys...)
	if userID != uuid.Nil {
		pipe.SRem(ctx, userTokensKey(userID), members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error("Failed to delete tokens", zap.Error(err))
		return 0, fmt.Errorf("failed to delete tokens: %w", err)
	}
	deleted, _ := delCmd.Result()
	log.Debug("Tokens deleted", zap.Int64("deletedCount", deleted))
	return deleted, nil
}

func (r *redisTokenRepository) lookup(ctx context.Context, key string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to get token from redis", zap.Error(err), zap.String("key", key))
		return uuid.Nil, fmt.Errorf("failed to get token from redis: %w", err)
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		r.logger.Error("Corrupted userID in redis", zap.String("key", key), zap.String("value", val), zap.Error(err))
		return uuid.Nil, fmt.Errorf("corrupted userID data in redis for %s: %w", key, err)
	}
	return userID, nil
}

// GetUserIDByAccessUUID returns the owner of an access token.
func (r *redisTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	return r.lookup(ctx, accessKeyPrefix+accessUUID)
}

// GetUserIDByRefreshUUID returns the owner of a refresh token.
func (r *redisTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	return r.lookup(ctx, refreshKeyPrefix+refreshUUID)
}

// DeleteTokensByUserID revokes every session of the user.
func (r *redisTokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	setKey := userTokensKey(userID)
	log := r.logger.With(zap.String("userID", userID.String()))

	members, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Error("Failed to read user token set", zap.Error(err))
		return 0, fmt.Errorf("failed to read tokens for user %s: %w", userID, err)
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		kind, id, ok := strings.Cut(m, ":")
		if !ok {
			log.Warn("Malformed token identifier in user set", zap.String("identifier", m))
			continue
		}
		switch kind {
		case "access":
			keys = append(keys, accessKeyPrefix+id)
		case "refresh":
			keys = append(keys, refreshKeyPrefix+id)
		default:
			log.Warn("Unknown token type in user set", zap.String("identifier", m))
		}
	}

	pipe := r.client.TxPipeline()
	var delCmd *redis.IntCmd
	if len(keys) > 0 {
		delCmd = pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error("Failed to delete user tokens", zap.Error(err))
		return 0, fmt.Errorf("failed to delete tokens for user %s: %w", userID, err)
	}

	var deleted int64
	if delCmd != nil {
		deleted, _ = delCmd.Result()
	}
	log.Info("Revoked all user tokens", zap.Int64("deletedTokenKeys", deleted))
	return deleted, nil
}
