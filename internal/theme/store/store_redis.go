package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agora/internal/theme/models"
	"agora/pkg/domain"
	"agora/pkg/platform/sentinel"
)

const themeKeyPrefix = "agora:theme:"

// Redis is a shared second-level theme cache so several portal instances
// do not each hit the upstream service for the same theme.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithTTL sets how long shared entries live. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Save writes theme with SET NX so an existing entry is never replaced.
func (r *Redis) Save(ctx context.Context, theme *models.Theme) error {
	if theme == nil {
		return nil
	}
	payload, err := json.Marshal(theme)
	if err != nil {
		return fmt.Errorf("encode theme %s: %w", theme.ID, err)
	}
	if err := r.client.SetNX(ctx, themeKeyPrefix+theme.ID.String(), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save theme %s: %w", theme.ID, err)
	}
	return nil
}

// Find returns the shared entry or sentinel.ErrNotFound.
func (r *Redis) Find(ctx context.Context, id domain.ThemeID) (*models.Theme, error) {
	payload, err := r.client.Get(ctx, themeKeyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find theme %s: %w", id, err)
	}
	var theme models.Theme
	if err := json.Unmarshal(payload, &theme); err != nil {
		return nil, fmt.Errorf("decode theme %s: %w", id, err)
	}
	return &theme, nil
}
