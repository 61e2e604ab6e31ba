package cache

import "errors"

var (
	ErrDuplicate     = errors.New("cache: duplicate")
	ErrNotConfigured = errors.New("cache: redis url not configured")
)
