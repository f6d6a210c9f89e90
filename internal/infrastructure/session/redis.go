package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"atelier-admin/internal/domain"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "variant-session:"

// NewRedisClient connects to the Redis server at url (redis://...) and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: ping: %w", err)
	}
	return client, nil
}

// RedisStore keeps sessions as JSON documents with a sliding TTL, so several
// service instances can share them.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

var _ domain.SessionStore = (*RedisStore)(nil)

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.VariantSession, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}

	var sess domain.VariantSession
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	if sess.Selected == nil {
		sess.Selected = map[string]bool{}
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *domain.VariantSession) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save %s: %w", sess.ID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, keyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
