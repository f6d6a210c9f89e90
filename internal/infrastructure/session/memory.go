package session

import (
	"context"
	"time"

	"atelier-admin/internal/domain"
	"atelier-admin/pkg/cache"
)

// MemoryStore keeps sessions in the process cache. Sessions are lost on
// restart and are not shared between instances. Reads never write, so only
// Save extends a session's lifetime.
type MemoryStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

func NewMemoryStore(c cache.CacheService, ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: c, ttl: ttl}
}

var _ domain.SessionStore = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.VariantSession, error) {
	v, ok := s.cache.Get(keyPrefix + id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess, ok := v.(domain.VariantSession)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

// Save stores a copy of the session value. Callers never mutate sessions in
// place, so slices and maps can be shared with the stored copy.
func (s *MemoryStore) Save(_ context.Context, sess *domain.VariantSession) error {
	s.cache.Set(keyPrefix+sess.ID, *sess, s.ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if _, ok := s.cache.Get(keyPrefix + id); !ok {
		return domain.ErrSessionNotFound
	}
	s.cache.Delete(keyPrefix + id)
	return nil
}
