package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
)

const resetTokenKeyPrefix = "password_reset:"

// ResetTokenRepository keeps password reset tokens in Redis; expiry is the key TTL.
type ResetTokenRepository struct {
	client *redis.Client
}

func NewResetTokenRepository(client *redis.Client) *ResetTokenRepository {
	return &ResetTokenRepository{client: client}
}

// Save stores token -> userID for ttl.
func (r *ResetTokenRepository) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	err := r.client.Set(ctx, resetTokenKeyPrefix+token, userID.String(), ttl).Err()
	if err != nil {
		logger.Log.Errorw("failed to store reset token", "userID", userID, "error", err)
	}
	return err
}

// Lookup returns the user of the token. The token stays valid until Delete or
// its TTL.
func (r *ResetTokenRepository) Lookup(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.client.Get(ctx, resetTokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenNotFound
	}
	if err != nil {
		logger.Log.Errorw("failed to read reset token", "error", err)
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

// Delete removes the token once it has been used.
func (r *ResetTokenRepository) Delete(ctx context.Context, token string) error {
	err := r.client.Del(ctx, resetTokenKeyPrefix+token).Err()
	if err != nil {
		logger.Log.Errorw("failed to delete reset token", "error", err)
	}
	return err
}
