package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel/metric"
)

// Options tunes the limiter beyond what the config carries.
type Options struct {
	// Client selects the Redis store; nil keeps counters in memory.
	Client        redis.UniversalClient
	Prefix        string
	ExcludedPaths []string
	Meter         metric.Meter
}

// New builds a per-client-IP limiter from cfg.Rate ("<limit>-<S|M|H|D>").
func New(ctx context.Context, cfg *config.RateLimitConfig, opts Options) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", cfg.Rate, err)
	}
	store, driver, err := newStore(opts)
	if err != nil {
		return nil, err
	}
	blocked, err := newBlockedCounter(opts.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit metrics: %w", err)
	}
	limit := mgin.NewMiddleware(
		limiter.New(store, rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			blocked.inc(c.Request.Context(), c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "rate limit exceeded",
			})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.FromContext(c.Request.Context()).Error("rate limiter failed", "error", err)
			c.Next()
		}),
	)
	logger.FromContext(ctx).Info("Rate limiter initialized", "driver", driver, "limit", rate.Limit, "period", rate.Period)
	excluded := opts.ExcludedPaths
	return func(c *gin.Context) {
		if slices.Contains(excluded, c.Request.URL.Path) {
			c.Next()
			return
		}
		limit(c)
	}, nil
}

func newStore(opts Options) (limiter.Store, string, error) {
	prefix := opts.Prefix + "ratelimit"
	if opts.Client == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		}), "memory", nil
	}
	store, err := sredis.NewStoreWithOptions(opts.Client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create redis rate limit store: %w", err)
	}
	return store, "redis", nil
}
