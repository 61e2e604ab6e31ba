package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/devclub/formsheets/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// MiniredisEmbedded runs an in-process Redis server for single-instance
// deployments that enable webhook dedupe without an external Redis.
// State is lost on restart.
type MiniredisEmbedded struct {
	server *miniredis.Miniredis
	*Redis
	closeOnce sync.Once
}

func NewMiniredisEmbedded(ctx context.Context, prefix string) (*MiniredisEmbedded, error) {
	server := miniredis.NewMiniRedis()
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("starting embedded redis: %w", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	r, err := newRedis(ctx, client, prefix)
	if err != nil {
		server.Close()
		return nil, err
	}
	logger.FromContext(ctx).Info("Embedded Redis started", "addr", server.Addr())
	return &MiniredisEmbedded{server: server, Redis: r}, nil
}

// Server exposes the embedded instance, mainly for FastForward in tests.
func (m *MiniredisEmbedded) Server() *miniredis.Miniredis {
	return m.server
}

func (m *MiniredisEmbedded) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = m.Redis.Close()
		m.server.Close()
	})
	return err
}
