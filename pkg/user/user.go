package user

import (
	"database/sql"

	"github.com/google/uuid"
)

type User struct {
	UUID               uuid.UUID    `json:"uuid"`
	Email              string       `json:"email"`
	IsActive           bool         `json:"is_active"`
	OTP                string       `json:"-"`
	OTPCreatedAt       sql.NullTime `json:"-"`
	OTPAttempts        int32        `json:"otp_attempts"`
	ResetHash          string       `json:"-"`
	ResetHashCreatedAt sql.NullTime `json:"-"`
	ResetHashAttempts  int32        `json:"reset_hash_attempts"`
	Firstname          string       `json:"firstname"`
	Lastname           string       `json:"lastname"`
	Phone              string       `json:"phone"`
	City               string       `json:"city"`
	About              string       `json:"about"`
	AvatarUrl          string       `json:"avatar_url"`
	AvatarFileName     string       `json:"avatar_file_name"`
	PasswordHash       string       `json:"-"`
	JWTVersion         uint         `json:"jwt_version"`
	IsSuperUser        bool         `json:"is_superuser"`
}
