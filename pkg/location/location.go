package location

import (
	"time"

	"github.com/google/uuid"
)

// UserLocation rows are append-only: every sync inserts a new row and
// the newest row per user is the authoritative one.
type UserLocation struct {
	Id        int64     `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}
