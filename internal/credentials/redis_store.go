package credentials

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

// RedisStore keeps vendor credentials in redis with a TTL so the
// expiry survives restarts and is shared by all handlers of one node.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func credentialsKey(manufacturer domain.Manufacturer) string {
	return "credentials:" + string(manufacturer)
}

func (s *RedisStore) Get(ctx context.Context, manufacturer domain.Manufacturer) (*Credentials, error) {
	raw, err := s.client.Get(ctx, credentialsKey(manufacturer)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var credentials Credentials
	if err := json.Unmarshal(raw, &credentials); err != nil {
		return nil, err
	}
	return &credentials, nil
}

func (s *RedisStore) Put(ctx context.Context, manufacturer domain.Manufacturer, credentials Credentials, ttl time.Duration) error {
	raw, err := json.Marshal(credentials)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, credentialsKey(manufacturer), raw, ttl).Err()
}
