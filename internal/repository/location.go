package repository

import (
	"context"
	"errors"

	"bookmarket/pkg/customerror"
	"bookmarket/pkg/location"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LocationRepositoryI interface {
	CreateTables(ctx context.Context) error
	InsertLocation(ctx context.Context, loc *location.UserLocation) error
	GetLatest(ctx context.Context, userId uuid.UUID) (*location.UserLocation, error)
	GetLatestAll(ctx context.Context) (map[uuid.UUID]location.UserLocation, error)
}

type LocationRepository struct {
	Pool *pgxpool.Pool
	Host string
	Port string
}

func NewLocationRepository(pool *pgxpool.Pool, host string, port string) LocationRepositoryI {
	return &LocationRepository{
		Pool: pool,
		Host: host,
		Port: port,
	}
}

func (r *LocationRepository) CreateTables(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS user_location (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id),
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := r.Pool.Exec(ctx, query)
	if err != nil {
		return customerror.NewError("LocationRepository.CreateTables", r.Host+":"+r.Port, err.Error())
	}
	createIndexQuery := `CREATE INDEX IF NOT EXISTS user_location_user_created_idx ON user_location(user_id, created_at DESC);`
	_, err = r.Pool.Exec(ctx, createIndexQuery)
	if err != nil {
		return customerror.NewError("LocationRepository.CreateTables", r.Host+":"+r.Port, err.Error())
	}
	return nil
}

func (r *LocationRepository) InsertLocation(ctx context.Context, loc *location.UserLocation) error {
	query := `INSERT INTO user_location (user_id, latitude, longitude) VALUES ($1, $2, $3)`
	_, err := r.Pool.Exec(ctx, query, loc.UserId, loc.Latitude, loc.Longitude)
	if err != nil {
		return customerror.NewError("LocationRepository.InsertLocation", r.Host+":"+r.Port, err.Error())
	}
	return nil
}

func (r *LocationRepository) GetLatest(ctx context.Context, userId uuid.UUID) (*location.UserLocation, error) {
	var loc location.UserLocation
	query := `SELECT id, user_id, latitude, longitude, created_at FROM user_location
	WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	err := r.Pool.QueryRow(ctx, query, userId).Scan(&loc.Id, &loc.UserId, &loc.Latitude, &loc.Longitude, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, customerror.NewError("LocationRepository.GetLatest", r.Host+":"+r.Port, err.Error())
	}
	return &loc, nil
}

// GetLatestAll returns each user's newest location row. Duplicate
// historical rows may exist; only the newest per user comes back.
func (r *LocationRepository) GetLatestAll(ctx context.Context) (map[uuid.UUID]location.UserLocation, error) {
	query := `SELECT DISTINCT ON (user_id) id, user_id, latitude, longitude, created_at
	FROM user_location ORDER BY user_id, created_at DESC, id DESC`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, customerror.NewError("LocationRepository.GetLatestAll", r.Host+":"+r.Port, err.Error())
	}
	locations := map[uuid.UUID]location.UserLocation{}
	for rows.Next() {
		var loc location.UserLocation
		err := rows.Scan(&loc.Id, &loc.UserId, &loc.Latitude, &loc.Longitude, &loc.CreatedAt)
		if err != nil {
			return nil, customerror.NewError("LocationRepository.GetLatestAll", r.Host+":"+r.Port, err.Error())
		}
		locations[loc.UserId] = loc
	}
	return locations, nil
}
