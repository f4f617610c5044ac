package service

import (
	"context"
	"time"

	"bookmarket/internal/repository"
	"bookmarket/pkg/customerror"
	modelsListing "bookmarket/pkg/listing"
	"bookmarket/pkg/user"

	"github.com/google/uuid"
)

type FavouritesServiceI interface {
	GetFavourites(offset int64, limit int64, userId uuid.UUID) ([]modelsListing.Listing, error)
	InsertFavourite(l *modelsListing.Listing, user *user.User) (int64, error)
	DeleteFavourite(listingId int64, user *user.User) error
}

type FavouritesService struct {
	favouritesRepo repository.FavouritesRepositoryI
	host           string
	port           string
}

func NewFavouritesService(favouritesRepo repository.FavouritesRepositoryI, host string, port string) FavouritesServiceI {
	return &FavouritesService{
		favouritesRepo: favouritesRepo,
		host:           host,
		port:           port,
	}
}

func (s *FavouritesService) GetFavourites(offset int64, limit int64, userId uuid.UUID) ([]modelsListing.Listing, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	listings, err := s.favouritesRepo.GetFavourites(ctx, offset, limit, userId)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("FavouritesService.GetFavourites")
		return []modelsListing.Listing{}, customErr
	}
	return listings, nil
}

func (s *FavouritesService) InsertFavourite(l *modelsListing.Listing, user *user.User) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	id, err := s.favouritesRepo.InsertFavourite(ctx, l, user)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("FavouritesService.InsertFavourite")
		return 0, customErr
	}
	return id, nil
}

func (s *FavouritesService) DeleteFavourite(listingId int64, user *user.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	err := s.favouritesRepo.DeleteFavourite(ctx, listingId, user)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("FavouritesService.DeleteFavourite")
		return customErr
	}
	return nil
}
