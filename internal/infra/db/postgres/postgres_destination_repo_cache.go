package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/repository"
	"telegram-classifieds-notify/internal/infra/metrics"
	red "telegram-classifieds-notify/internal/infra/redis"
)

var _ repository.DestinationRepository = (*destinationRepoCacheDecorator)(nil)

// destinationRepoCacheDecorator caches destination rows in redis. Destinations
// change rarely but are read on every dispatch, so a short TTL cache takes the
// hot path off postgres.
type destinationRepoCacheDecorator struct {
	inner repository.DestinationRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewDestinationRepoCacheDecorator(inner repository.DestinationRepository, cache red.RedisClient, ttl time.Duration) repository.DestinationRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &destinationRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func (d *destinationRepoCacheDecorator) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.Destination, error) {
	cacheKey := fmt.Sprintf("destination:%s", key)
	val, err := d.cache.Get(ctx, cacheKey)
	if err == nil {
		metrics.IncCacheRequest("destination", "hit")
		var dst model.Destination
		if json.Unmarshal([]byte(val), &dst) == nil {
			return &dst, nil
		}
	}

	metrics.IncCacheRequest("destination", "miss")
	dst, err := d.inner.FindByKey(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if dst != nil {
		bytes, _ := json.Marshal(dst)
		_ = d.cache.Set(ctx, cacheKey, bytes, d.ttl)
	}
	return dst, nil
}

func (d *destinationRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Destination, error) {
	const cacheKey = "destinations:active"
	val, err := d.cache.Get(ctx, cacheKey)
	if err == nil {
		metrics.IncCacheRequest("destination_list", "hit")
		var dsts []*model.Destination
		if json.Unmarshal([]byte(val), &dsts) == nil {
			return dsts, nil
		}
	}

	metrics.IncCacheRequest("destination_list", "miss")
	dsts, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(dsts) > 0 {
		bytes, _ := json.Marshal(dsts)
		_ = d.cache.Set(ctx, cacheKey, bytes, d.ttl)
	}
	return dsts, nil
}

// Writes invalidate both the single-key entry and the active list.
func (d *destinationRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, dst *model.Destination) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("destination:%s", dst.Key), "destinations:active")
	return d.inner.Save(ctx, tx, dst)
}
