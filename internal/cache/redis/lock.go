package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Both scripts act only while the key still holds the caller's token, so a
// holder whose lease already expired cannot touch a successor's lock.
var (
	releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0`)

	extendScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0`)
)

// LockManager implements domain.LockManager with SET NX leases. A held lock
// is extended in the background every third of its TTL, so a run that
// outlives the TTL keeps it; a crashed holder loses it after one TTL.
type LockManager struct {
	rdb *redis.Client
}

// NewLockManager creates a LockManager.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{rdb: c.Underlying()}
}

func lockKey(key string) string {
	return "lock:" + key
}

// Acquire takes the lock or returns domain.ErrLockHeld. The returned unlock
// function stops the lease renewal and releases the key; calling it more
// than once is harmless.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lk, token := lockKey(key), uuid.NewString()

	ok, err := lm.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, domain.ErrLockHeld)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go lm.renew(lk, token, ttl, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			lm.release(lk, token)
		})
	}, nil
}

func (lm *LockManager) renew(lk, token string, ttl time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(max(ttl/3, time.Second))
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			n, err := extendScript.Run(ctx, lm.rdb, []string{lk}, token, ttl.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				// Lease lost; nothing left to renew.
				return
			}
		}
	}
}

// release runs on a fresh context so unlocking still works after the
// caller's context is cancelled.
func (lm *LockManager) release(lk, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = releaseScript.Run(ctx, lm.rdb, []string{lk}, token).Err()
}

var _ domain.LockManager = (*LockManager)(nil)
