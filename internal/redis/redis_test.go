package redis_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/openkeyhub/governance/internal/database/types"
	"github.com/openkeyhub/governance/internal/redis"
	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTest(t *testing.T) (*miniredis.Miniredis, rueidis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return mr, client
}

func TestManager(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	manager := redis.NewManager(&config.Redis{
		Host:         mr.Host(),
		Port:         port,
		DisableCache: true,
	}, zaptest.NewLogger(t))
	defer manager.Close()

	client, err := manager.GetClient(redis.LockDBIndex)
	require.NoError(t, err)

	same, err := manager.GetClient(redis.LockDBIndex)
	require.NoError(t, err)
	assert.Same(t, client, same)

	err = client.Do(t.Context(), client.B().Set().Key("k").Value("v").Build()).Error()
	require.NoError(t, err)

	got, err := mr.DB(redis.LockDBIndex).Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.False(t, mr.DB(redis.CacheDBIndex).Exists("k"))

	require.NoError(t, manager.Ping(t.Context()))

	mr.SetError("server down")
	require.Error(t, manager.Ping(t.Context()))
	mr.SetError("")
}

func TestGetOrLoad(t *testing.T) {
	t.Parallel()

	t.Run("caches until ttl expires", func(t *testing.T) {
		t.Parallel()
		mr, client := setupTest(t)
		cache := redis.NewCache(client, zaptest.NewLogger(t))

		var calls atomic.Int32
		load := func(context.Context) (*types.VotingStats, error) {
			n := calls.Add(1)
			return &types.VotingStats{TotalSupply: 1000, ActiveVoters: int(n)}, nil
		}

		first, err := redis.GetOrLoad(t.Context(), cache, "stats", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, 1, first.ActiveVoters)

		second, err := redis.GetOrLoad(t.Context(), cache, "stats", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls.Load())

		mr.FastForward(2 * time.Minute)

		third, err := redis.GetOrLoad(t.Context(), cache, "stats", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, 2, third.ActiveVoters)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()
		mr, client := setupTest(t)
		cache := redis.NewCache(client, zaptest.NewLogger(t))

		errLoad := errors.New("ledger down")
		_, err := redis.GetOrLoad(t.Context(), cache, "stats", time.Minute,
			func(context.Context) (int, error) { return 0, errLoad })
		require.ErrorIs(t, err, errLoad)
		assert.Empty(t, mr.Keys())

		v, err := redis.GetOrLoad(t.Context(), cache, "stats", time.Minute,
			func(context.Context) (int, error) { return 7, nil })
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("zero ttl bypasses cache", func(t *testing.T) {
		t.Parallel()
		mr, client := setupTest(t)
		cache := redis.NewCache(client, zaptest.NewLogger(t))

		for i := range 3 {
			v, err := redis.GetOrLoad(t.Context(), cache, "stats", 0,
				func(context.Context) (int, error) { return i, nil })
			require.NoError(t, err)
			assert.Equal(t, i, v)
		}
		assert.Empty(t, mr.Keys())
	})

	t.Run("concurrent misses share one load", func(t *testing.T) {
		t.Parallel()
		_, client := setupTest(t)
		cache := redis.NewCache(client, zaptest.NewLogger(t))

		var calls atomic.Int32
		release := make(chan struct{})
		load := func(context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 42, nil
		}

		var wg sync.WaitGroup
		results := make([]int, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := redis.GetOrLoad(context.Background(), cache, "shared", time.Minute, load)
				assert.NoError(t, err)
				results[i] = v
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		for _, v := range results {
			assert.Equal(t, 42, v)
		}
		assert.LessOrEqual(t, calls.Load(), int32(len(results)))
		assert.GreaterOrEqual(t, calls.Load(), int32(1))
	})
}

func TestInvalidate(t *testing.T) {
	t.Parallel()
	mr, client := setupTest(t)
	cache := redis.NewCache(client, zaptest.NewLogger(t))

	_, err := redis.GetOrLoad(t.Context(), cache, "stats", time.Minute,
		func(context.Context) (string, error) { return "x", nil })
	require.NoError(t, err)
	require.Len(t, mr.Keys(), 1)

	require.NoError(t, cache.Invalidate(t.Context(), "stats"))
	assert.Empty(t, mr.Keys())
	require.NoError(t, cache.Invalidate(t.Context()))
}

func TestLocker(t *testing.T) {
	t.Parallel()

	t.Run("exclusive until released", func(t *testing.T) {
		t.Parallel()
		_, client := setupTest(t)
		locker := redis.NewLocker(client, zaptest.NewLogger(t))

		lease, err := locker.TryAcquire(t.Context(), "sweep", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, lease)

		other, err := locker.TryAcquire(t.Context(), "sweep", time.Minute)
		require.NoError(t, err)
		assert.Nil(t, other)

		require.NoError(t, lease.Release(t.Context()))

		other, err = locker.TryAcquire(t.Context(), "sweep", time.Minute)
		require.NoError(t, err)
		assert.NotNil(t, other)
	})

	t.Run("expired lease cannot release new holder", func(t *testing.T) {
		t.Parallel()
		mr, client := setupTest(t)
		locker := redis.NewLocker(client, zaptest.NewLogger(t))

		stale, err := locker.TryAcquire(t.Context(), "sweep", time.Second)
		require.NoError(t, err)
		require.NotNil(t, stale)

		mr.FastForward(2 * time.Second)

		fresh, err := locker.TryAcquire(t.Context(), "sweep", time.Minute)
		require.NoError(t, err)
		require.NotNil(t, fresh)

		require.ErrorIs(t, stale.Release(t.Context()), redis.ErrLockNotHeld)
		require.ErrorIs(t, stale.Extend(t.Context(), time.Minute), redis.ErrLockNotHeld)
		assert.True(t, mr.Exists("governance:lock:sweep"))

		require.NoError(t, fresh.Extend(t.Context(), 5*time.Minute))
		assert.Equal(t, 5*time.Minute, mr.TTL("governance:lock:sweep"))
		require.NoError(t, fresh.Release(t.Context()))
		assert.False(t, mr.Exists("governance:lock:sweep"))
	})
}
