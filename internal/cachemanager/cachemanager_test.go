package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type typeKey string

func TestInMemoryCacheManager(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[typeKey, int]("test", time.Minute, time.Minute)

	_, ok := c.Get(ctx, "missing")
	require.False(t, ok)

	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", 2, time.Minute)

	v, ok := c.Get(ctx, "a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	got, ok := c.GetMultiple(ctx, []typeKey{"a", "b", "c"})
	require.True(t, ok)
	require.Equal(t, map[typeKey]int{"a": 1, "b": 2}, got)

	_, ok = c.GetMultiple(ctx, []typeKey{"x", "y"})
	require.False(t, ok)

	v, ok = c.GetWithRefresh(ctx, "b", time.Hour)
	require.True(t, ok)
	require.Equal(t, 2, v)

	require.NoError(t, c.Delete(ctx, "a"))
	_, ok = c.Get(ctx, "a")
	require.False(t, ok)
	require.Equal(t, 1, c.Len())

	require.NoError(t, c.Flush(ctx))
	require.Zero(t, c.Len())

	stats := c.Stats()
	require.Equal(t, int64(4), stats.Hits)
	require.Equal(t, int64(5), stats.Misses)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, string]("expiry", time.Minute, time.Minute)

	c.Set(ctx, "k", "v", 10*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestReadThroughCache_LoadsOnce(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCacheManager[string, string]("read-through", 0, 0)

	calls := 0
	rt := NewReadThroughCache(c, func(n int) string {
		return string(rune('a' + n))
	}, func(_ context.Context, n int) (string, error) {
		calls++
		if n < 0 {
			return "", errors.New("negative")
		}
		return "value", nil
	}, time.Minute, false)

	for range 3 {
		v, err := rt.Get(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "value", v)
	}
	require.Equal(t, 1, calls)

	_, err := rt.GetWithRefresh(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	require.NoError(t, rt.Invalidate(ctx, 1))
	_, err = rt.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	_, err = rt.Get(ctx, -1)
	require.Error(t, err)
	_, err = rt.Get(ctx, -1)
	require.Error(t, err)
	require.Equal(t, 4, calls, "errors are not cached")
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (int, bool) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Bool(1)
}

func (m *mockCache) GetMultiple(ctx context.Context, keys []string) (map[string]int, bool) {
	args := m.Called(ctx, keys)
	return args.Get(0).(map[string]int), args.Bool(1)
}

func (m *mockCache) GetWithRefresh(ctx context.Context, key string, ttl time.Duration) (int, bool) {
	args := m.Called(ctx, key, ttl)
	return args.Int(0), args.Bool(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value int, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) Flush(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestReadThroughCache_Skip(t *testing.T) {
	m := &mockCache{}
	rt := NewReadThroughCache[string, int, int](m, func(int) string { return "k" },
		func(_ context.Context, n int) (int, error) { return n * 2, nil }, time.Minute, true)

	v, err := rt.Get(context.Background(), 21)
	require.NoError(t, err)
	require.Equal(t, 42, v)
	m.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_RefreshUsesTTL(t *testing.T) {
	ctx := context.Background()
	m := &mockCache{}
	m.On("GetWithRefresh", ctx, "k", 5*time.Second).Return(0, false).Once()
	m.On("Set", ctx, "k", 7, 5*time.Second).Once()

	rt := NewReadThroughCache[string, int, int](m, func(int) string { return "k" },
		func(_ context.Context, n int) (int, error) { return n, nil }, 5*time.Second, false)

	v, err := rt.GetWithRefresh(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 7, v)
	m.AssertExpectations(t)
}
