package redis_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-application-form/internal/domain"
	sessionredis "go-application-form/internal/repository/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocker(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("Should hold the key until unlock", func(t *testing.T) {
		mr, client := setupLocker(t)
		locker := sessionredis.NewSessionLocker(client, 10*time.Second, time.Second)

		unlock, err := locker.Lock(ctx, "abc")
		require.NoError(t, err)
		assert.True(t, mr.Exists("form:lock:abc"))
		assert.Equal(t, 10*time.Second, mr.TTL("form:lock:abc"))

		unlock()
		assert.False(t, mr.Exists("form:lock:abc"))
	})

	t.Run("Should report busy when another instance holds the lock", func(t *testing.T) {
		_, client := setupLocker(t)
		first := sessionredis.NewSessionLocker(client, 10*time.Second, time.Second)
		second := sessionredis.NewSessionLocker(client, 10*time.Second, 50*time.Millisecond)

		unlock, err := first.Lock(ctx, "abc")
		require.NoError(t, err)
		defer unlock()

		_, err = second.Lock(ctx, "abc")
		assert.ErrorIs(t, err, domain.ErrSessionBusy)
	})

	t.Run("Should not delete a lock taken over after expiry", func(t *testing.T) {
		mr, client := setupLocker(t)
		locker := sessionredis.NewSessionLocker(client, 10*time.Second, time.Second)

		unlock, err := locker.Lock(ctx, "abc")
		require.NoError(t, err)

		mr.FastForward(11 * time.Second)
		require.NoError(t, mr.Set("form:lock:abc", "other-holder"))

		unlock()
		got, err := mr.Get("form:lock:abc")
		require.NoError(t, err)
		assert.Equal(t, "other-holder", got)
	})

	t.Run("Should serialize holders across lockers", func(t *testing.T) {
		_, client := setupLocker(t)

		var (
			wg      sync.WaitGroup
			inside  int32
			overlap int32
		)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				locker := sessionredis.NewSessionLocker(client, 10*time.Second, 5*time.Second)
				unlock, err := locker.Lock(ctx, "abc")
				if !assert.NoError(t, err) {
					return
				}
				if atomic.AddInt32(&inside, 1) > 1 {
					atomic.StoreInt32(&overlap, 1)
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				unlock()
			}()
		}
		wg.Wait()
		assert.Zero(t, atomic.LoadInt32(&overlap))
	})

	t.Run("Should return the context error when the request is cancelled", func(t *testing.T) {
		_, client := setupLocker(t)
		locker := sessionredis.NewSessionLocker(client, 10*time.Second, 5*time.Second)

		unlock, err := locker.Lock(ctx, "abc")
		require.NoError(t, err)
		defer unlock()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = locker.Lock(cancelled, "abc")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
