package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/devclub/formsheets/engine/infra/cache"
)

var ErrDuplicate = errors.New("duplicate")

// Service remembers delivery keys for a bounded time.
type Service interface {
	// CheckAndSet records key and returns ErrDuplicate when it was already
	// recorded within ttl.
	CheckAndSet(ctx context.Context, key string, ttl time.Duration) error
	// Release forgets key so a retried delivery is processed again.
	Release(ctx context.Context, key string) error
}

type redisService struct {
	store cache.Store
}

// NewRedisService stores keys in Redis through SETNX.
func NewRedisService(store cache.Store) Service {
	return &redisService{store: store}
}

func (s *redisService) CheckAndSet(ctx context.Context, key string, ttl time.Duration) error {
	err := s.store.SetOnce(ctx, s.store.Key("webhook", key), 1, ttl)
	if errors.Is(err, cache.ErrDuplicate) {
		return ErrDuplicate
	}
	return err
}

func (s *redisService) Release(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.store.Key("webhook", key))
}

// KeyWithNamespace scopes a delivery key to a form.
func KeyWithNamespace(formID, key string) string {
	if formID == "" {
		formID = "unknown"
	}
	return formID + ":" + key
}
