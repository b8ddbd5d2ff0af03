package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenVerifier resolves session tokens against the shared session
// store written by the auth layer. Records live under "session:<token>"
// as JSON {"userId": n, "role": "user"}.
type RedisTokenVerifier struct {
	client *redis.Client
}

// NewRedisTokenVerifier creates a verifier backed by the session store
func NewRedisTokenVerifier(client *redis.Client) *RedisTokenVerifier {
	return &RedisTokenVerifier{client: client}
}

// Verify looks the token up in the session store.
func (v *RedisTokenVerifier) Verify(token string) (Identity, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := v.client.Get(ctx, "session:"+token).Result()
	if err != nil {
		return Identity{}, fmt.Errorf("session lookup failed: %w", err)
	}

	var record struct {
		UserID int    `json:"userId"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return Identity{}, fmt.Errorf("malformed session record: %w", err)
	}
	if record.UserID <= 0 {
		return Identity{}, fmt.Errorf("session record missing user id")
	}

	role := record.Role
	if role == "" {
		role = RoleUser
	}
	return Identity{UserID: record.UserID, Role: role}, nil
}

// DevTokenVerifier accepts tokens of the form "dev:<userId>:<role>".
// Local development only; never wire it outside dev mode.
type DevTokenVerifier struct{}

// Verify parses the dev token format.
func (DevTokenVerifier) Verify(token string) (Identity, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "dev" {
		return Identity{}, fmt.Errorf("invalid dev token")
	}

	userID, err := strconv.Atoi(parts[1])
	if err != nil || userID <= 0 {
		return Identity{}, fmt.Errorf("invalid dev token user id")
	}
	if parts[2] != RoleUser && parts[2] != RoleAdmin {
		return Identity{}, fmt.Errorf("invalid dev token role")
	}

	return Identity{UserID: userID, Role: parts[2]}, nil
}
