package cache

import (
	"errors"
	"testing"
	"time"

	"bookmarket/pkg/location"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func TestGetOrFillCachesWithinTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewLocationCache(10 * time.Minute)
	c.now = fixedClock(&now)

	userId := uuid.New()
	calls := 0
	fill := func() (map[uuid.UUID]location.UserLocation, error) {
		calls++
		return map[uuid.UUID]location.UserLocation{
			userId: {UserId: userId, Latitude: 1, Longitude: 2},
		}, nil
	}

	first, err := c.GetOrFill(LocationKey, fill)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	assert.Equal(t, 1.0, first[userId].Latitude)

	now = now.Add(9 * time.Minute)
	second, err := c.GetOrFill(LocationKey, fill)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "fill must not run before the TTL passes")
	assert.Equal(t, first[userId], second[userId])
}

func TestGetOrFillRefreshesAfterTTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewLocationCache(10 * time.Minute)
	c.now = fixedClock(&now)

	userId := uuid.New()
	otherId := uuid.New()
	calls := 0
	fill := func() (map[uuid.UUID]location.UserLocation, error) {
		calls++
		if calls == 1 {
			return map[uuid.UUID]location.UserLocation{
				userId: {UserId: userId, Latitude: 1},
			}, nil
		}
		return map[uuid.UUID]location.UserLocation{
			otherId: {UserId: otherId, Latitude: 2},
		}, nil
	}

	_, err := c.GetOrFill(LocationKey, fill)
	require.NoError(t, err)

	now = now.Add(10*time.Minute + time.Second)
	refreshed, err := c.GetOrFill(LocationKey, fill)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	// The mapping is replaced wholesale, not merged.
	_, stale := refreshed[userId]
	assert.False(t, stale)
	assert.Equal(t, 2.0, refreshed[otherId].Latitude)
}

func TestGetOrFillDoesNotCacheErrors(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewLocationCache(10 * time.Minute)
	c.now = fixedClock(&now)

	calls := 0
	boom := errors.New("db down")
	_, err := c.GetOrFill(LocationKey, func() (map[uuid.UUID]location.UserLocation, error) {
		calls++
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	userId := uuid.New()
	locations, err := c.GetOrFill(LocationKey, func() (map[uuid.UUID]location.UserLocation, error) {
		calls++
		return map[uuid.UUID]location.UserLocation{userId: {UserId: userId}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, locations, userId)
}
