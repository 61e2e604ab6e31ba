package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

// Redis wraps a go-redis client with the key prefix used by this service.
type Redis struct {
	client redis.UniversalClient
	prefix string
	once   sync.Once
	ctx    context.Context
}

// NewRedis connects to the server named by cfg.URL and pings it.
func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil || cfg.URL.Value() == "" {
		return nil, ErrNotConfigured
	}
	opt, err := redis.ParseURL(cfg.URL.Value())
	if err != nil {
		return nil, fmt.Errorf("parsing Redis URL: %w", err)
	}
	if opt.TLSConfig != nil && opt.TLSConfig.MinVersion == 0 {
		opt.TLSConfig.MinVersion = tls.VersionTLS12
	}
	return newRedis(ctx, redis.NewClient(opt), cfg.Prefix)
}

func newRedis(ctx context.Context, client redis.UniversalClient, prefix string) (*Redis, error) {
	log := logger.FromContext(ctx).With("component", "infra_redis")
	ctx = logger.ContextWithLogger(ctx, log)
	if err := pingRedis(ctx, client, defaultPingTimeout); err != nil {
		client.Close()
		return nil, err
	}
	log.Info("Redis connection established", "prefix", prefix)
	return &Redis{client: client, prefix: prefix, ctx: ctx}, nil
}

func pingRedis(ctx context.Context, client redis.UniversalClient, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("pinging Redis server (timeout=%s): %w", timeout, err)
	}
	return nil
}

// Key namespaces parts under the configured prefix.
func (r *Redis) Key(parts ...string) string {
	key := r.prefix
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}

func (r *Redis) Client() redis.UniversalClient {
	return r.client
}

// SetOnce stores key only when it is absent. It returns ErrDuplicate when
// the key already exists.
func (r *Redis) SetOnce(ctx context.Context, key string, value any, ttl time.Duration) error {
	ok, err := r.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return fmt.Errorf("setnx %s: %w", key, err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

// Delete removes key. A missing key is not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// HealthCheck pings the server.
func (r *Redis) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close is idempotent.
func (r *Redis) Close() error {
	var err error
	r.once.Do(func() {
		err = r.client.Close()
		if err != nil {
			logger.FromContext(r.ctx).Error("Redis connection close failed", "error", err)
		} else {
			logger.FromContext(r.ctx).Debug("Redis connection closed")
		}
	})
	return err
}
