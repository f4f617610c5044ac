package service

import (
	"context"
	"sort"
	"time"

	"bookmarket/internal/repository"
	"bookmarket/pkg/cache"
	"bookmarket/pkg/customerror"
	"bookmarket/pkg/geo"
	"bookmarket/pkg/listing"
	"bookmarket/pkg/location"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	nearbyBatchSize = 500
	// nearbyScanCap bounds the work a single request can do. Past the
	// cap the result is the nearest of what was scanned, not of the
	// whole table.
	nearbyScanCap     = 10000
	nearbyBufferPages = 3
	// A page past the scan cap can never hold candidates, and larger
	// values overflow the page arithmetic.
	nearbyMaxPage     = nearbyScanCap
	nearbyMaxPageSize = 100
)

type NearbyResult struct {
	Page       int64                  `json:"page"`
	PageSize   int64                  `json:"page_size"`
	TotalCount int64                  `json:"total_count"`
	TotalPages int64                  `json:"total_pages"`
	Listings   []listing.WithDistance `json:"listings"`
}

type NearbyServiceI interface {
	GetNearby(userId uuid.UUID, page int64, pageSize int64) (*NearbyResult, error)
}

type NearbyService struct {
	listingRepo   repository.ListingRepositoryI
	locationRepo  repository.LocationRepositoryI
	locationCache *cache.LocationCache
	host          string
	port          string
}

func NewNearbyService(listingRepo repository.ListingRepositoryI, locationRepo repository.LocationRepositoryI, locationCache *cache.LocationCache, host string, port string) NearbyServiceI {
	return &NearbyService{
		listingRepo:   listingRepo,
		locationRepo:  locationRepo,
		locationCache: locationCache,
		host:          host,
		port:          port,
	}
}

// GetNearby walks unsold listings newest first in fixed batches,
// attaches the distance from the requester to each listing's owner and
// keeps only the nearest candidates seen so far. Batches keep coming
// until enough candidates exist to serve the requested page (plus a
// buffer of nearbyBufferPages pages, since batches arrive in creation
// order, not distance order), the scan cap is hit, or the table runs
// out.
func (s *NearbyService) GetNearby(userId uuid.UUID, page int64, pageSize int64) (*NearbyResult, error) {
	if page < 1 {
		page = 1
	}
	if page > nearbyMaxPage {
		page = nearbyMaxPage
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > nearbyMaxPageSize {
		pageSize = nearbyMaxPageSize
	}

	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()

	locations, err := s.locationCache.GetOrFill(cache.LocationKey, func() (map[uuid.UUID]location.UserLocation, error) {
		return s.locationRepo.GetLatestAll(ctx)
	})
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("NearbyService.GetNearby")
		return nil, customErr
	}

	origin, ok := locations[userId]
	if !ok {
		// The cached mapping can lag a fresh sync by its TTL.
		latest, err := s.locationRepo.GetLatest(ctx, userId)
		if err == pgx.ErrNoRows {
			return nil, customerror.ErrNoLocation
		}
		if err != nil {
			customErr := err.(customerror.CustomError)
			customErr.AppendModule("NearbyService.GetNearby")
			return nil, customErr
		}
		origin = *latest
	}

	needed := page*pageSize + pageSize*nearbyBufferPages
	var candidates []listing.WithDistance
	var processed int64
	var offset int64
	for {
		batch, err := s.listingRepo.GetUnsoldBatch(ctx, offset, nearbyBatchSize)
		if err != nil {
			customErr := err.(customerror.CustomError)
			customErr.AppendModule("NearbyService.GetNearby")
			return nil, customErr
		}
		for _, l := range batch {
			candidate := listing.WithDistance{Listing: l}
			if ownerLoc, ok := locations[l.OwnerId]; ok {
				d := geo.Haversine(origin.Latitude, origin.Longitude, ownerLoc.Latitude, ownerLoc.Longitude)
				candidate.DistanceKm = &d
			}
			candidates = append(candidates, candidate)
		}
		processed += int64(len(batch))
		if int64(len(candidates)) >= 2*needed {
			sortByDistance(candidates)
			candidates = candidates[:needed]
		}
		if int64(len(candidates)) >= needed || processed >= nearbyScanCap || int64(len(batch)) < nearbyBatchSize {
			break
		}
		offset += nearbyBatchSize
	}
	sortByDistance(candidates)

	totalCount, err := s.listingRepo.CountUnsold(ctx)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("NearbyService.GetNearby")
		return nil, customErr
	}
	totalPages := (totalCount + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > int64(len(candidates)) {
		start = int64(len(candidates))
	}
	if end > int64(len(candidates)) {
		end = int64(len(candidates))
	}

	return &NearbyResult{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
		Listings:   candidates[start:end],
	}, nil
}

// sortByDistance orders candidates nearest first. A missing distance is
// unknown, so it sorts after every known one.
func sortByDistance(candidates []listing.WithDistance) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].DistanceKm, candidates[j].DistanceKm
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
}
