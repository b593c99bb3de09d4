package utility

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryCache(t *testing.T) CacheService {
	t.Helper()
	svc := NewMemoryCacheService()
	t.Cleanup(func() { StopCacheService(svc) })
	return svc
}

func TestMemoryCacheService_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemoryCache(t)

	val, err := svc.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, svc.Set(ctx, "k", "<h2>x</h2>", 0))
	val, err = svc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "<h2>x</h2>", val)

	require.NoError(t, svc.Delete(ctx, "k"))
	val, err = svc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestMemoryCacheService_Expiry(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemoryCache(t)

	require.NoError(t, svc.Set(ctx, "short", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	val, err := svc.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	keys, err := svc.Scan(ctx, "*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryCacheService_IncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemoryCache(t)

	const workers, perWorker = 8, 250
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, err := svc.Increment(ctx, "counter")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	val, err := svc.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "2000", val)
}

func TestMemoryCacheService_IncrementNonInteger(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemoryCache(t)

	require.NoError(t, svc.Set(ctx, "text", "abc", 0))
	_, err := svc.Increment(ctx, "text")
	assert.Error(t, err)
}

func TestMemoryCacheService_Scan(t *testing.T) {
	ctx := context.Background()
	svc := newTestMemoryCache(t)

	for _, key := range []string{"filter:heading:a", "filter:heading:b", "filter:stats:processed", "other"} {
		require.NoError(t, svc.Set(ctx, key, "1", 0))
	}

	keys, err := svc.Scan(ctx, "filter:heading:*")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"filter:heading:a", "filter:heading:b"}, keys)

	keys, err = svc.Scan(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, keys)
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		s, pattern string
		expected   bool
	}{
		{"filter:heading:abc", "filter:heading:*", true},
		{"filter:stats:x", "filter:heading:*", false},
		{"abc", "a*c", true},
		{"ac", "a*c", true},
		{"a", "a*a", false},
		{"a-b-c", "a*b*c", true},
		{"a-c-b", "a*b*c", false},
		{"abc", "abc", true},
		{"anything", "*", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, matchPattern(tt.s, tt.pattern), "%s ~ %s", tt.s, tt.pattern)
	}
}
