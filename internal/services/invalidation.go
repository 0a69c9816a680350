package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hub-helio-backend/internal/models"
	"hub-helio-backend/internal/views"
)

// viewBackend is the slice of *redis.Client the view cache and the
// invalidation fan-out use.
type viewBackend interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Invalidator drops cached views and tells the user's open sockets which
// views to refetch.
type Invalidator struct {
	rdb viewBackend
}

func NewInvalidator(rdb viewBackend) *Invalidator {
	return &Invalidator{rdb: rdb}
}

// Invalidate never fails the caller; a stale cache only costs a refetch.
func (i *Invalidator) Invalidate(ctx context.Context, userID uuid.UUID, set views.Set) {
	if len(set) == 0 {
		return
	}

	list := set.List()
	keys := make([]string, len(list))
	names := make([]string, len(list))
	for n, v := range list {
		keys[n] = views.CacheKey(userID, v)
		names[n] = string(v)
	}

	if err := i.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("Failed to drop cached views %v for user %s: %v", names, userID, err)
	}

	if err := i.PublishUpdate(ctx, userID, models.WSMessage{
		Type:    "views_invalidated",
		Payload: models.ViewsInvalidated{Views: names},
	}); err != nil {
		log.Printf("Failed to publish invalidation for user %s: %v", userID, err)
	}
}

// PublishUpdate sends msg to the user's update channel.
func (i *Invalidator) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return i.rdb.Publish(ctx, views.Channel(userID), data).Err()
}

// ViewCache stores computed view payloads in one Redis hash per user and
// view, so dropping the view key clears every variant (e.g. each month).
type ViewCache struct {
	rdb viewBackend
	ttl time.Duration
}

func NewViewCache(rdb viewBackend, ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ViewCache{rdb: rdb, ttl: ttl}
}

// GetOrBuild returns the cached payload for (view, variant) or builds and
// stores it. Cache failures fall back to building.
func GetOrBuild[T any](ctx context.Context, c *ViewCache, userID uuid.UUID, view views.View, variant string, build func(context.Context) (T, error)) (T, error) {
	key := views.CacheKey(userID, view)
	if variant == "" {
		variant = "_"
	}

	if c != nil {
		raw, err := c.rdb.HGet(ctx, key, variant).Bytes()
		switch {
		case err == nil:
			var cached T
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
		case !errors.Is(err, redis.Nil):
			log.Printf("View cache read failed for %s/%s: %v", key, variant, err)
		}
	}

	val, err := build(ctx)
	if err != nil {
		return val, err
	}

	if c != nil {
		if data, err := json.Marshal(val); err == nil {
			if err := c.rdb.HSet(ctx, key, variant, data).Err(); err != nil {
				log.Printf("View cache write failed for %s/%s: %v", key, variant, err)
			} else {
				c.rdb.Expire(ctx, key, c.ttl)
			}
		}
	}
	return val, nil
}
