package listing

import (
	"database/sql"
	"time"

	"bookmarket/pkg/user"

	"github.com/google/uuid"
)

const (
	// MaxPrice is the ceiling enforced on every listing price.
	MaxPrice = 100000

	MaxImages    = 4
	MaxImageSize = 5 << 20
)

type Listing struct {
	Id             int64        `json:"id"`
	OwnerId        uuid.UUID    `json:"owner_id"`
	Title          string       `json:"title"`
	Author         string       `json:"author"`
	Publication    string       `json:"publication"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	Subcategory    string       `json:"subcategory"`
	Price          float64      `json:"price"`
	Sold           bool         `json:"sold"`
	Boosted        bool         `json:"boosted"`
	BoostExpiresAt sql.NullTime `json:"boost_expires_at"`
	Views          int64        `json:"views"`
	ImagePaths     []string     `json:"image_paths"`
	CreatedAt      time.Time    `json:"created_at"`
	Owner          user.User    `json:"owner"`
}

// WithDistance pairs a listing with the distance from the requesting
// user to the listing owner. DistanceKm is nil when the owner has no
// stored location; nil is "unknown", never "0 km away".
type WithDistance struct {
	Listing    `json:"listing"`
	DistanceKm *float64 `json:"distance_km"`
}
