package enrich

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"mediaradar/catalogservice/internal/domain"
)

const redisCachePrefix = "mradar:enrich:"

// RedisCacheBackend stores resolved media details in Redis with JSON
// serialization, so enrichment results outlive a single process.
type RedisCacheBackend struct {
	client *redis.Client
}

func NewRedisCacheBackend(client *redis.Client) *RedisCacheBackend {
	return &RedisCacheBackend{client: client}
}

func (r *RedisCacheBackend) Get(ctx context.Context, key string) (domain.MediaDetails, bool, error) {
	data, err := r.client.Get(ctx, redisCachePrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.MediaDetails{}, false, nil
		}
		return domain.MediaDetails{}, false, err
	}
	var details domain.MediaDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return domain.MediaDetails{}, false, err
	}
	return details, true, nil
}

func (r *RedisCacheBackend) Set(ctx context.Context, key string, details domain.MediaDetails, ttl time.Duration) error {
	data, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisCachePrefix+key, data, ttl).Err()
}
