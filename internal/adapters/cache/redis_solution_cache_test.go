package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"vrp-model-service/internal/domain"
)

func newTestCache(t *testing.T) (*RedisSolutionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSolutionCache(client), mr
}

func sampleSolution() *domain.Solution {
	return &domain.Solution{
		Routes: []domain.Route{
			{Vehicle: 0, Stops: []int{0, 1, 2, 0}, Loads: []int{0, 3, 5, 5}, Distance: 7},
		},
		Objective: 7,
	}
}

func TestSolutionCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.Put(ctx, "abc", sampleSolution(), time.Minute))

	got, hit, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, sampleSolution(), got)
}

func TestSolutionCacheExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "abc", sampleSolution(), time.Second))
	mr.FastForward(2 * time.Second)

	_, hit, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestSolutionCacheKeysAreIndependent(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "one", sampleSolution(), time.Minute))

	_, hit, err := c.Get(ctx, "two")
	require.NoError(t, err)
	require.False(t, hit)
}
