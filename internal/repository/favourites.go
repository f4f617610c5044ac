package repository

import (
	"context"

	"bookmarket/pkg/customerror"
	"bookmarket/pkg/listing"
	"bookmarket/pkg/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FavouritesRepositoryI interface {
	CreateTables(ctx context.Context) error
	GetFavourites(ctx context.Context, offset int64, limit int64, userId uuid.UUID) ([]listing.Listing, error)
	InsertFavourite(ctx context.Context, l *listing.Listing, user *user.User) (int64, error)
	DeleteFavourite(ctx context.Context, listingId int64, user *user.User) error
}

type FavouritesRepository struct {
	Pool *pgxpool.Pool
	Host string
	Port string
}

func NewFavouritesRepository(pool *pgxpool.Pool, host string, port string) FavouritesRepositoryI {
	return &FavouritesRepository{
		Pool: pool,
		Host: host,
		Port: port,
	}
}

func (r *FavouritesRepository) CreateTables(ctx context.Context) error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS favourites (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		listing_id BIGINT NOT NULL REFERENCES listing(id) ON DELETE CASCADE,
		CONSTRAINT favourites_user_listing_unique UNIQUE (user_id, listing_id)
	);`
	_, err := r.Pool.Exec(ctx, createTableQuery)
	if err != nil {
		return customerror.NewError("favouritesRepo.CreateTables", r.Host+":"+r.Port, err.Error())
	}
	return nil
}

func (r *FavouritesRepository) GetFavourites(ctx context.Context, offset int64, limit int64, userId uuid.UUID) ([]listing.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM favourites JOIN listing ON favourites.listing_id = listing.id
		WHERE favourites.user_id = $1
		ORDER BY favourites.id DESC LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, userId, limit, offset)
	if err != nil {
		return nil, customerror.NewError("favouritesRepo.GetFavourites", r.Host+":"+r.Port, err.Error())
	}
	var listings []listing.Listing
	for rows.Next() {
		var l listing.Listing
		err := scanListing(rows, &l, nil)
		if err != nil {
			return nil, customerror.NewError("favouritesRepo.GetFavourites", r.Host+":"+r.Port, err.Error())
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (r *FavouritesRepository) InsertFavourite(ctx context.Context, l *listing.Listing, user *user.User) (int64, error) {
	query := `INSERT INTO favourites (user_id, listing_id) VALUES ($1, $2) RETURNING id`
	var id int64
	err := r.Pool.QueryRow(ctx, query, user.UUID, l.Id).Scan(&id)
	if err != nil {
		return 0, customerror.NewError("favouritesRepo.InsertFavourite", r.Host+":"+r.Port, err.Error())
	}
	return id, nil
}

func (r *FavouritesRepository) DeleteFavourite(ctx context.Context, listingId int64, user *user.User) error {
	query := `DELETE FROM favourites WHERE listing_id = $1 AND user_id = $2`
	_, err := r.Pool.Exec(ctx, query, listingId, user.UUID)
	if err != nil {
		return customerror.NewError("favouritesRepo.DeleteFavourite", r.Host+":"+r.Port, err.Error())
	}
	return nil
}
