package cache

import (
	"context"
	"io"
	"time"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Store is the subset of Redis the webhook layer depends on.
type Store interface {
	Key(parts ...string) string
	SetOnce(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
	Client() redis.UniversalClient
	io.Closer
}

var (
	_ Store = (*Redis)(nil)
	_ Store = (*MiniredisEmbedded)(nil)
)

// SetupStore connects to the configured Redis, or starts an embedded one
// when no URL is set.
func SetupStore(ctx context.Context, cfg *config.RedisConfig) (Store, error) {
	if cfg.URL.Value() != "" {
		return NewRedis(ctx, cfg)
	}
	logger.FromContext(ctx).Warn("REDIS_URL not set, using embedded Redis for webhook dedupe")
	return NewMiniredisEmbedded(ctx, cfg.Prefix)
}
