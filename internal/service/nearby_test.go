package service

import (
	"context"
	"testing"
	"time"

	"bookmarket/internal/repository"
	"bookmarket/pkg/cache"
	"bookmarket/pkg/customerror"
	"bookmarket/pkg/listing"
	"bookmarket/pkg/location"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListingRepo struct {
	repository.ListingRepositoryI
	unsold []listing.Listing
}

func (f *fakeListingRepo) GetUnsoldBatch(ctx context.Context, offset int64, limit int64) ([]listing.Listing, error) {
	if offset >= int64(len(f.unsold)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(f.unsold)) {
		end = int64(len(f.unsold))
	}
	return f.unsold[offset:end], nil
}

func (f *fakeListingRepo) CountUnsold(ctx context.Context) (int64, error) {
	return int64(len(f.unsold)), nil
}

type fakeLocationRepo struct {
	repository.LocationRepositoryI
	locations map[uuid.UUID]location.UserLocation
}

func (f *fakeLocationRepo) GetLatestAll(ctx context.Context) (map[uuid.UUID]location.UserLocation, error) {
	return f.locations, nil
}

func (f *fakeLocationRepo) GetLatest(ctx context.Context, userId uuid.UUID) (*location.UserLocation, error) {
	loc, ok := f.locations[userId]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &loc, nil
}

func ownerAt(locations map[uuid.UUID]location.UserLocation, lat, lon float64) uuid.UUID {
	id := uuid.New()
	locations[id] = location.UserLocation{UserId: id, Latitude: lat, Longitude: lon}
	return id
}

func newNearby(listings []listing.Listing, locations map[uuid.UUID]location.UserLocation) NearbyServiceI {
	return NewNearbyService(
		&fakeListingRepo{unsold: listings},
		&fakeLocationRepo{locations: locations},
		cache.NewLocationCache(time.Minute),
		"localhost", "8080",
	)
}

func TestGetNearbyOrdersByDistance(t *testing.T) {
	locations := map[uuid.UUID]location.UserLocation{}
	requester := ownerAt(locations, 0, 0)
	far := ownerAt(locations, 5, 0)
	near := ownerAt(locations, 1, 0)
	mid := ownerAt(locations, 3, 0)

	// Newest first, deliberately not in distance order.
	listings := []listing.Listing{
		{Id: 1, OwnerId: far},
		{Id: 2, OwnerId: near},
		{Id: 3, OwnerId: mid},
	}

	result, err := newNearby(listings, locations).GetNearby(requester, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Listings, 3)
	assert.Equal(t, near, result.Listings[0].OwnerId)
	assert.Equal(t, mid, result.Listings[1].OwnerId)
	assert.Equal(t, far, result.Listings[2].OwnerId)
	for _, l := range result.Listings {
		require.NotNil(t, l.DistanceKm)
	}
	assert.Less(t, *result.Listings[0].DistanceKm, *result.Listings[1].DistanceKm)
}

func TestGetNearbyUnknownDistanceSortsLast(t *testing.T) {
	locations := map[uuid.UUID]location.UserLocation{}
	requester := ownerAt(locations, 0, 0)
	known := ownerAt(locations, 2, 0)
	unknown := uuid.New() // never synced a location

	listings := []listing.Listing{
		{Id: 1, OwnerId: unknown},
		{Id: 2, OwnerId: known},
	}

	result, err := newNearby(listings, locations).GetNearby(requester, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Listings, 2)
	assert.Equal(t, known, result.Listings[0].OwnerId)
	require.NotNil(t, result.Listings[0].DistanceKm)
	assert.Equal(t, unknown, result.Listings[1].OwnerId)
	assert.Nil(t, result.Listings[1].DistanceKm)
}

func TestGetNearbyPagination(t *testing.T) {
	locations := map[uuid.UUID]location.UserLocation{}
	requester := ownerAt(locations, 0, 0)

	var listings []listing.Listing
	owners := make([]uuid.UUID, 5)
	for i := 0; i < 5; i++ {
		owners[i] = ownerAt(locations, float64(i+1), 0)
		listings = append(listings, listing.Listing{Id: int64(i + 1), OwnerId: owners[i]})
	}

	result, err := newNearby(listings, locations).GetNearby(requester, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Page)
	assert.Equal(t, int64(2), result.PageSize)
	assert.Equal(t, int64(5), result.TotalCount)
	assert.Equal(t, int64(3), result.TotalPages)
	require.Len(t, result.Listings, 2)
	assert.Equal(t, owners[2], result.Listings[0].OwnerId)
	assert.Equal(t, owners[3], result.Listings[1].OwnerId)
}

func TestGetNearbyPageBeyondCandidates(t *testing.T) {
	locations := map[uuid.UUID]location.UserLocation{}
	requester := ownerAt(locations, 0, 0)
	owner := ownerAt(locations, 1, 0)
	listings := []listing.Listing{{Id: 1, OwnerId: owner}}

	result, err := newNearby(listings, locations).GetNearby(requester, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Listings)
	assert.Equal(t, int64(1), result.TotalCount)
}

func TestGetNearbyWithoutLocation(t *testing.T) {
	locations := map[uuid.UUID]location.UserLocation{}
	owner := ownerAt(locations, 1, 0)
	listings := []listing.Listing{{Id: 1, OwnerId: owner}}

	_, err := newNearby(listings, locations).GetNearby(uuid.New(), 1, 10)
	assert.Equal(t, customerror.ErrNoLocation, err)
}

func TestGetNearbyOriginMissesCacheFallsBackToRepo(t *testing.T) {
	locations := map[uuid.UUID]location.UserLocation{}
	requester := uuid.New()
	owner := ownerAt(locations, 1, 0)
	listings := []listing.Listing{{Id: 1, OwnerId: owner}}

	listingRepo := &fakeListingRepo{unsold: listings}
	locationRepo := &fakeLocationRepo{locations: locations}
	locationCache := cache.NewLocationCache(time.Minute)

	// Warm the cache without the requester, then sync their location.
	// The cached mapping is stale but the origin lookup must still
	// find them.
	_, err := locationCache.GetOrFill(cache.LocationKey, func() (map[uuid.UUID]location.UserLocation, error) {
		return locations, nil
	})
	require.NoError(t, err)
	locations[requester] = location.UserLocation{UserId: requester, Latitude: 0, Longitude: 0}

	service := NewNearbyService(listingRepo, locationRepo, locationCache, "localhost", "8080")
	result, err := service.GetNearby(requester, 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Listings, 1)
	require.NotNil(t, result.Listings[0].DistanceKm)
}

func TestGetNearbyClampsHugePageValues(t *testing.T) {
	locations := map[uuid.UUID]location.UserLocation{}
	requester := ownerAt(locations, 0, 0)
	owner := ownerAt(locations, 1, 0)
	listings := []listing.Listing{{Id: 1, OwnerId: owner}}

	service := newNearby(listings, locations)

	// Page arithmetic must not overflow into a negative slice bound.
	result, err := service.GetNearby(requester, 1<<62, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Listings)
	assert.Equal(t, int64(1), result.TotalCount)

	result, err = service.GetNearby(requester, 1, 1<<62)
	require.NoError(t, err)
	require.Len(t, result.Listings, 1)
}

func TestGetNearbyPruneKeepsNearest(t *testing.T) {
	locations := map[uuid.UUID]location.UserLocation{}
	requester := ownerAt(locations, 0, 0)

	// With page 1 and page size 1 the accumulator wants 4 candidates
	// and prunes once it holds 8, so the nearest listing must survive
	// the prune regardless of where it sits in creation order.
	nearest := ownerAt(locations, 0.5, 0)
	var listings []listing.Listing
	for i := 0; i < 9; i++ {
		owner := ownerAt(locations, float64(i+2), 0)
		listings = append(listings, listing.Listing{Id: int64(i + 1), OwnerId: owner})
	}
	listings = append(listings, listing.Listing{Id: 10, OwnerId: nearest})

	result, err := newNearby(listings, locations).GetNearby(requester, 1, 1)
	require.NoError(t, err)
	require.Len(t, result.Listings, 1)
	assert.Equal(t, nearest, result.Listings[0].OwnerId)
}
