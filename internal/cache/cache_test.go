package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cityevents/internal/cache"
	"cityevents/internal/logger"
)

func TestInMemoryCacheRoundTrip(t *testing.T) {
	c := cache.New(nil, time.Minute, logger.NewLogger())
	ctx := context.Background()

	_, hit := c.GetCities(ctx)
	assert.False(t, hit)

	c.SetCities(ctx, []string{"Boise", "Spokane"})

	cities, hit := c.GetCities(ctx)
	assert.True(t, hit)
	assert.Equal(t, []string{"Boise", "Spokane"}, cities)
}

func TestInvalidateDropsEntry(t *testing.T) {
	c := cache.New(nil, time.Minute, logger.NewLogger())
	ctx := context.Background()

	c.SetCities(ctx, []string{"Spokane"})
	c.Invalidate(ctx)

	_, hit := c.GetCities(ctx)
	assert.False(t, hit)
}

func TestEntryExpires(t *testing.T) {
	c := cache.New(nil, 10*time.Millisecond, logger.NewLogger())
	ctx := context.Background()

	c.SetCities(ctx, []string{"Spokane"})
	time.Sleep(25 * time.Millisecond)

	_, hit := c.GetCities(ctx)
	assert.False(t, hit)
}

func TestEmptySetIsAHit(t *testing.T) {
	c := cache.New(nil, time.Minute, logger.NewLogger())
	ctx := context.Background()

	// A board with no approved events caches an empty picker set rather
	// than hitting the store on every render.
	c.SetCities(ctx, []string{})

	cities, hit := c.GetCities(ctx)
	assert.True(t, hit)
	assert.Empty(t, cities)
}
