package cooldown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisGate(t *testing.T, window time.Duration) (*RedisGate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGate(client, window), mr
}

func TestRedisGateWindow(t *testing.T) {
	g, mr := newRedisGate(t, 3*time.Second)
	ctx := context.Background()

	cooling, err := g.IsCoolingDown(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cooling)

	require.NoError(t, g.SetCooldown(ctx, 1))
	cooling, err = g.IsCoolingDown(ctx, 1)
	require.NoError(t, err)
	assert.True(t, cooling)
	assert.True(t, mr.Exists("cooldown:1"))

	mr.FastForward(3 * time.Second)
	cooling, err = g.IsCoolingDown(ctx, 1)
	require.NoError(t, err)
	assert.False(t, cooling)
}

func TestRedisGateAllow(t *testing.T) {
	g, mr := newRedisGate(t, time.Second)
	ctx := context.Background()

	ok, err := g.Allow(ctx, 9)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Allow(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Second)
	ok, err = g.Allow(ctx, 9)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGateConcurrentAllow(t *testing.T) {
	g, _ := newRedisGate(t, time.Minute)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.Allow(ctx, 5)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, admitted)
}

func TestRedisGateUnavailable(t *testing.T) {
	g, mr := newRedisGate(t, time.Second)
	mr.Close()

	_, err := g.Allow(context.Background(), 1)
	assert.Error(t, err)
}

func TestRedisGateZeroWindow(t *testing.T) {
	g, mr := newRedisGate(t, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := g.Allow(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	require.NoError(t, g.SetCooldown(ctx, 1))
	assert.False(t, mr.Exists("cooldown:1"))
}
