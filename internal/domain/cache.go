package domain

import (
	"context"
	"time"
)

// TeamMappingCache is a read-through cache in front of TeamMappingStore.
type TeamMappingCache interface {
	Get(ctx context.Context, sourceName string) (TeamMapping, error)
	Set(ctx context.Context, m TeamMapping) error
	Invalidate(ctx context.Context, sourceName string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string, limit int, window time.Duration) error
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub fan-out of run events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
