package challenge

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKycChecker reads the KYC completion flag maintained by the
// onboarding system, stored under "kyc:<userId>".
type RedisKycChecker struct {
	client *redis.Client
}

// NewRedisKycChecker creates a checker backed by the shared KYC store
func NewRedisKycChecker(client *redis.Client) *RedisKycChecker {
	return &RedisKycChecker{client: client}
}

// KycComplete reports whether the onboarding system marked the user done.
func (c *RedisKycChecker) KycComplete(ctx context.Context, userID int) (bool, error) {
	val, err := c.client.Get(ctx, fmt.Sprintf("kyc:%d", userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("kyc lookup failed: %w", err)
	}
	return val == "complete" || val == "1" || val == "true", nil
}

// StaticKycChecker returns a fixed answer. Local development and tests.
type StaticKycChecker bool

// KycComplete returns the configured answer.
func (c StaticKycChecker) KycComplete(ctx context.Context, userID int) (bool, error) {
	return bool(c), nil
}
