package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/pkg/cache"
)

func TestWithoutRedisEverythingMisses(t *testing.T) {
	cache.Use(nil)
	ctx := context.Background()

	assert.False(t, cache.Available())
	assert.NoError(t, cache.Set(ctx, "k", 1, time.Minute))

	var out int
	assert.False(t, cache.Get(ctx, "k", &out))
	assert.NoError(t, cache.Forget(ctx, "k"))

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 2; i++ {
		v, err := cache.Remember(ctx, "answer", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	_, err := cache.Remember(ctx, "fails", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
