package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"agora/internal/youth"
	"agora/pkg/platform/sentinel"
)

const profileKeyPrefix = "agora:profile:"

// Redis reads profiles persisted as JSON strings.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Load returns the profile under key or sentinel.ErrNotFound.
func (r *Redis) Load(ctx context.Context, key string) (*youth.Profile, error) {
	payload, err := r.client.Get(ctx, profileKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", key, err)
	}
	var profile youth.Profile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", key, err)
	}
	return &profile, nil
}
