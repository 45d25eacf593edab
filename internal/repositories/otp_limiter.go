package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/xcellar-wallet/internal/logger"
)

const otpSendKeyPrefix = "otp:sends:"

// OTPLimiterRepository counts OTP sends per phone number in a fixed window.
type OTPLimiterRepository struct {
	client *redis.Client
	max    int
	window time.Duration
}

func NewOTPLimiterRepository(client *redis.Client, max int, window time.Duration) *OTPLimiterRepository {
	return &OTPLimiterRepository{client: client, max: max, window: window}
}

// Allow registers one send attempt and reports whether it is within the limit.
// The window key is created with its TTL and incremented in one MULTI/EXEC,
// so a counter never outlives its window.
func (r *OTPLimiterRepository) Allow(ctx context.Context, phone string) (bool, error) {
	key := otpSendKeyPrefix + phone

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, r.window)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to increment otp counter", "phone", phone, "error", err)
		return false, err
	}
	count := incr.Val()

	logger.Log.Debugw("otp send attempt", "phone", phone, "count", count, "max", r.max)
	return count <= int64(r.max), nil
}
