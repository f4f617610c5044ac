package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookmarket/pkg/customerror"
	"bookmarket/pkg/listing"
	"bookmarket/pkg/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingRepositoryI interface {
	CreateTables(ctx context.Context) error
	GetListings(ctx context.Context, offset int64, limit int64, filters map[string]any) ([]listing.Listing, error)
	GetListing(ctx context.Context, id int64) (*listing.Listing, error)
	InsertListing(ctx context.Context, l *listing.Listing) (int64, error)
	UpdateListing(ctx context.Context, l *listing.Listing, user *user.User) error
	DeleteListing(ctx context.Context, id int64, user *user.User) error

	GetUnsoldBatch(ctx context.Context, offset int64, limit int64) ([]listing.Listing, error)
	CountUnsold(ctx context.Context) (int64, error)
	SetSold(ctx context.Context, id int64, sold bool) error
	SetBoost(ctx context.Context, id int64, until time.Time) error
	IncrementViews(ctx context.Context, id int64, viewerId uuid.UUID) (bool, int64, error)
}

type ListingRepository struct {
	Pool *pgxpool.Pool
	Host string
	Port string
}

func NewListingRepository(pool *pgxpool.Pool, host string, port string) ListingRepositoryI {
	return &ListingRepository{
		Pool: pool,
		Host: host,
		Port: port,
	}
}

func (listingRepo *ListingRepository) CreateTables(ctx context.Context) error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS listing (
		id BIGSERIAL PRIMARY KEY,
		owner_id UUID NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		author TEXT DEFAULT '',
		publication TEXT DEFAULT '',
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT DEFAULT '',
		price DOUBLE PRECISION NOT NULL,
		sold BOOLEAN DEFAULT FALSE,
		boosted BOOLEAN DEFAULT FALSE,
		boost_expires_at TIMESTAMP,
		views BIGINT DEFAULT 0,
		image_paths TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := listingRepo.Pool.Exec(ctx, createTableQuery)
	if err != nil {
		return customerror.NewError("listingRepo.CreateTables", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}

	createIndexQuery := `CREATE INDEX IF NOT EXISTS listing_owner_id_idx ON listing(owner_id);`
	_, err = listingRepo.Pool.Exec(ctx, createIndexQuery)
	if err != nil {
		return customerror.NewError("listingRepo.CreateTables", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}

	createIndexQuery = `CREATE INDEX IF NOT EXISTS listing_unsold_created_at_idx ON listing(created_at DESC) WHERE sold = FALSE;`
	_, err = listingRepo.Pool.Exec(ctx, createIndexQuery)
	if err != nil {
		return customerror.NewError("listingRepo.CreateTables", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	return nil
}

const listingColumns = `listing.id, listing.owner_id, listing.title, listing.author, listing.publication,
	listing.description, listing.category, listing.subcategory, listing.price, listing.sold,
	listing.boosted, listing.boost_expires_at, listing.views, listing.image_paths, listing.created_at`

func scanListing(row pgx.Row, l *listing.Listing, owner *user.User) error {
	var imagePaths string
	dest := []any{
		&l.Id,
		&l.OwnerId,
		&l.Title,
		&l.Author,
		&l.Publication,
		&l.Description,
		&l.Category,
		&l.Subcategory,
		&l.Price,
		&l.Sold,
		&l.Boosted,
		&l.BoostExpiresAt,
		&l.Views,
		&imagePaths,
		&l.CreatedAt,
	}
	if owner != nil {
		dest = append(dest, &owner.UUID, &owner.Firstname, &owner.Lastname, &owner.AvatarUrl)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(imagePaths), &l.ImagePaths); err != nil {
		return err
	}
	return nil
}

func (listingRepo *ListingRepository) GetListings(ctx context.Context, offset int64, limit int64, filters map[string]any) ([]listing.Listing, error) {
	listings := []listing.Listing{}
	filtersCount := 1
	query := `SELECT ` + listingColumns + `, users.id, users.firstname, users.lastname, users.avatar_url
	FROM listing JOIN users ON listing.owner_id = users.id WHERE listing.id IS NOT NULL`
	params := []any{}
	if filters["title"] != nil {
		query += " AND strpos(lower(listing.title), lower($" + fmt.Sprint(filtersCount) + ")) > 0 "
		params = append(params, filters["title"])
		filtersCount++
	}

	if filters["category"] != nil {
		query += " AND listing.category = $" + fmt.Sprint(filtersCount)
		params = append(params, filters["category"])
		filtersCount++
	}

	if filters["subcategory"] != nil {
		query += " AND listing.subcategory = $" + fmt.Sprint(filtersCount)
		params = append(params, filters["subcategory"])
		filtersCount++
	}

	if filters["price_from"] != nil {
		query += " AND listing.price >= $" + fmt.Sprint(filtersCount)
		params = append(params, filters["price_from"])
		filtersCount++
	}

	if filters["price_to"] != nil {
		query += " AND listing.price <= $" + fmt.Sprint(filtersCount)
		params = append(params, filters["price_to"])
		filtersCount++
	}

	if filters["sold"] != nil {
		query += " AND listing.sold = $" + fmt.Sprint(filtersCount)
		params = append(params, filters["sold"])
		filtersCount++
	}

	if filters["owner_id"] != nil {
		query += " AND listing.owner_id = $" + fmt.Sprint(filtersCount)
		params = append(params, filters["owner_id"])
		filtersCount++
	}

	params = append(params, offset, limit)
	query += fmt.Sprintf(` ORDER BY listing.boosted DESC, listing.created_at DESC OFFSET $%d LIMIT $%d;`, filtersCount, filtersCount+1)
	rows, err := listingRepo.Pool.Query(ctx, query, params...)
	if err != nil {
		return nil, customerror.NewError("listingRepo.GetListings", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	for rows.Next() {
		var l listing.Listing
		var owner user.User
		err := scanListing(rows, &l, &owner)
		if err != nil {
			return nil, customerror.NewError("listingRepo.GetListings", listingRepo.Host+":"+listingRepo.Port, err.Error())
		}
		l.Owner = owner
		listings = append(listings, l)
	}
	return listings, nil
}

func (listingRepo *ListingRepository) GetListing(ctx context.Context, id int64) (*listing.Listing, error) {
	var l listing.Listing
	query := `SELECT ` + listingColumns + `, users.id, users.firstname, users.lastname, users.avatar_url
	FROM listing JOIN users ON listing.owner_id = users.id WHERE listing.id = $1`
	row := listingRepo.Pool.QueryRow(ctx, query, id)
	err := scanListing(row, &l, &l.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, customerror.NewError("listingRepo.GetListing", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	return &l, nil
}

func (listingRepo *ListingRepository) InsertListing(ctx context.Context, l *listing.Listing) (int64, error) {
	imagePaths, err := json.Marshal(l.ImagePaths)
	if err != nil {
		return 0, customerror.NewError("listingRepo.InsertListing", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	query := `INSERT INTO listing (owner_id, title, author, publication, description, category, subcategory, price, image_paths)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id int64
	err = listingRepo.Pool.QueryRow(ctx, query, l.OwnerId, l.Title, l.Author, l.Publication, l.Description, l.Category, l.Subcategory, l.Price, string(imagePaths)).Scan(&id)
	if err != nil {
		return 0, customerror.NewError("listingRepo.InsertListing", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	return id, nil
}

func (listingRepo *ListingRepository) UpdateListing(ctx context.Context, l *listing.Listing, user *user.User) error {
	imagePaths, err := json.Marshal(l.ImagePaths)
	if err != nil {
		return customerror.NewError("listingRepo.UpdateListing", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	query := `UPDATE listing SET title = $1, author = $2, publication = $3, description = $4, category = $5, subcategory = $6, price = $7, image_paths = $8 WHERE id = $9`
	whereArgs := []any{l.Title, l.Author, l.Publication, l.Description, l.Category, l.Subcategory, l.Price, string(imagePaths), l.Id}
	if !user.IsSuperUser {
		query += ` AND owner_id = $10`
		whereArgs = append(whereArgs, user.UUID)
	}
	command, err := listingRepo.Pool.Exec(ctx, query, whereArgs...)
	if err != nil {
		return customerror.NewError("listingRepo.UpdateListing", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	if command.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (listingRepo *ListingRepository) DeleteListing(ctx context.Context, id int64, user *user.User) error {
	args := []any{id}
	query := `DELETE FROM listing WHERE id = $1`
	if !user.IsSuperUser {
		query += ` AND owner_id = $2`
		args = append(args, user.UUID)
	}
	command, err := listingRepo.Pool.Exec(ctx, query, args...)
	if err != nil {
		return customerror.NewError("listingRepo.DeleteListing", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	if command.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetUnsoldBatch feeds the nearby-search scan: unsold listings only,
// newest first, one batch per call.
func (listingRepo *ListingRepository) GetUnsoldBatch(ctx context.Context, offset int64, limit int64) ([]listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listing WHERE sold = FALSE
	ORDER BY listing.created_at DESC OFFSET $1 LIMIT $2`
	rows, err := listingRepo.Pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, customerror.NewError("listingRepo.GetUnsoldBatch", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	var listings []listing.Listing
	for rows.Next() {
		var l listing.Listing
		err := scanListing(rows, &l, nil)
		if err != nil {
			return nil, customerror.NewError("listingRepo.GetUnsoldBatch", listingRepo.Host+":"+listingRepo.Port, err.Error())
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (listingRepo *ListingRepository) CountUnsold(ctx context.Context) (int64, error) {
	var count int64
	err := listingRepo.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM listing WHERE sold = FALSE`).Scan(&count)
	if err != nil {
		return 0, customerror.NewError("listingRepo.CountUnsold", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	return count, nil
}

// SetSold flips the sold flag only when the listing is not already in
// the target state; a zero-row result means it was.
func (listingRepo *ListingRepository) SetSold(ctx context.Context, id int64, sold bool) error {
	query := `UPDATE listing SET sold = $1 WHERE id = $2 AND sold <> $1`
	command, err := listingRepo.Pool.Exec(ctx, query, sold, id)
	if err != nil {
		return customerror.NewError("listingRepo.SetSold", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	if command.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (listingRepo *ListingRepository) SetBoost(ctx context.Context, id int64, until time.Time) error {
	query := `UPDATE listing SET boosted = TRUE, boost_expires_at = $1 WHERE id = $2`
	command, err := listingRepo.Pool.Exec(ctx, query, until, id)
	if err != nil {
		return customerror.NewError("listingRepo.SetBoost", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	if command.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// IncrementViews bumps the view counter in a single conditional UPDATE
// so concurrent viewers never lose updates. The owner never counts; the
// current counter is still reported back for them.
func (listingRepo *ListingRepository) IncrementViews(ctx context.Context, id int64, viewerId uuid.UUID) (bool, int64, error) {
	var views int64
	query := `UPDATE listing SET views = views + 1 WHERE id = $1 AND owner_id <> $2 RETURNING views`
	err := listingRepo.Pool.QueryRow(ctx, query, id, viewerId).Scan(&views)
	if err == nil {
		return true, views, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, 0, customerror.NewError("listingRepo.IncrementViews", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	err = listingRepo.Pool.QueryRow(ctx, `SELECT views FROM listing WHERE id = $1`, id).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, pgx.ErrNoRows
		}
		return false, 0, customerror.NewError("listingRepo.IncrementViews", listingRepo.Host+":"+listingRepo.Port, err.Error())
	}
	return false, views, nil
}
