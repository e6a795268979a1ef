package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const lockKeyPrefix = "governance:lock:"

// ErrLockNotHeld is returned when a lease was lost to expiry or another holder.
var ErrLockNotHeld = errors.New("lock not held")

var (
	releaseScript = rueidis.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	extendScript = rueidis.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Locker hands out named leases so that only one replica runs a job at a time.
type Locker struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewLocker creates a locker on the given client.
func NewLocker(client rueidis.Client, logger *zap.Logger) *Locker {
	return &Locker{
		client: client,
		logger: logger.Named("redis_lock"),
	}
}

// Lease is a held lock. It expires on its own after the TTL unless extended.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// TryAcquire takes the named lock for ttl. It returns nil without error when
// another holder owns the lock.
func (l *Locker) TryAcquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	lease := &Lease{
		locker: l,
		key:    lockKeyPrefix + name,
		token:  uuid.NewString(),
	}

	cmd := l.client.B().Set().Key(lease.key).Value(lease.token).Nx().Px(ttl).Build()
	err := l.client.Do(ctx, cmd).Error()
	if rueidis.IsRedisNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}

	l.logger.Debug("Acquired lock", zap.String("lock", name), zap.Duration("ttl", ttl))
	return lease, nil
}

// Extend resets the lease TTL. It returns ErrLockNotHeld when the lease was lost.
func (ls *Lease) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Exec(ctx, ls.locker.client,
		[]string{ls.key}, []string{ls.token, strconv.FormatInt(ttl.Milliseconds(), 10)}).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to extend lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Release deletes the lock if this lease still owns it. It returns ErrLockNotHeld otherwise.
func (ls *Lease) Release(ctx context.Context) error {
	n, err := releaseScript.Exec(ctx, ls.locker.client, []string{ls.key}, []string{ls.token}).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}

	ls.locker.logger.Debug("Released lock", zap.String("key", ls.key))
	return nil
}
