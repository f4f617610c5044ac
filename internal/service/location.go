package service

import (
	"context"
	"time"

	"bookmarket/internal/repository"
	"bookmarket/pkg/customerror"
	modelsLocation "bookmarket/pkg/location"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LocationServiceI interface {
	Sync(userId uuid.UUID, latitude float64, longitude float64) error
	GetLatest(userId uuid.UUID) (*modelsLocation.UserLocation, error)
}

type LocationService struct {
	locationRepo repository.LocationRepositoryI
	host         string
	port         string
}

func NewLocationService(locationRepo repository.LocationRepositoryI, host string, port string) LocationServiceI {
	return &LocationService{
		locationRepo: locationRepo,
		host:         host,
		port:         port,
	}
}

// Sync appends a fresh location row; prior rows stay behind as history
// and the newest one wins.
func (s *LocationService) Sync(userId uuid.UUID, latitude float64, longitude float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	err := s.locationRepo.InsertLocation(ctx, &modelsLocation.UserLocation{
		UserId:    userId,
		Latitude:  latitude,
		Longitude: longitude,
	})
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("LocationService.Sync")
		return customErr
	}
	return nil
}

func (s *LocationService) GetLatest(userId uuid.UUID) (*modelsLocation.UserLocation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	loc, err := s.locationRepo.GetLatest(ctx, userId)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("LocationService.GetLatest")
		return nil, customErr
	}
	return loc, nil
}
