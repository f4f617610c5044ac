package repository

import (
	"context"
	"errors"
	"fmt"

	"bookmarket/pkg/config"
	"bookmarket/pkg/customerror"
	"bookmarket/pkg/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepositoryI interface {
	CreateTables(ctx context.Context) error
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetUserByCredentials(ctx context.Context, field string, value any) (*user.User, error)
	UpdateUser(ctx context.Context, user *user.User) error
	UpdateUserSensetive(ctx context.Context, user *user.User) error
	InsertUser(ctx context.Context, user *user.User) error
}

type UserRepository struct {
	Pool *pgxpool.Pool
	Host string
	Port string
}

func NewUserRepository(pool *pgxpool.Pool, appConfig *config.Config) UserRepositoryI {
	return &UserRepository{
		Pool: pool,
		Host: appConfig.WebHost,
		Port: appConfig.WebPort,
	}
}

func (userRepo *UserRepository) CreateTables(ctx context.Context) error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS users (
		id              UUID PRIMARY KEY,
		email           TEXT DEFAULT '',
		firstname       TEXT DEFAULT '',
		lastname        TEXT DEFAULT '',
		phone           TEXT DEFAULT '',
		city            TEXT DEFAULT '',
		about           TEXT DEFAULT '',
		avatar_url      TEXT DEFAULT '',
		avatar_file_name TEXT DEFAULT '',
		password_hash   TEXT DEFAULT '',
		jwt_version 	INTEGER DEFAULT 0,
		is_superuser    BOOLEAN DEFAULT FALSE,
		otp             TEXT DEFAULT '',
		otp_created_at  TIMESTAMP,
		otp_attempts    INTEGER DEFAULT 0,
		reset_hash      TEXT DEFAULT '',
		reset_hash_created_at TIMESTAMP,
		reset_hash_attempts INTEGER DEFAULT 0,
		is_active       BOOLEAN DEFAULT FALSE
	);`
	_, err := userRepo.Pool.Exec(ctx, createTableQuery)
	if err != nil {
		return customerror.NewError("userRepo.CreateTables", userRepo.Host+":"+userRepo.Port, err.Error())
	}
	createIndexQuery := `CREATE INDEX IF NOT EXISTS user_email_idx ON users(email);`
	_, err = userRepo.Pool.Exec(ctx, createIndexQuery)
	if err != nil {
		return customerror.NewError("userRepo.CreateTables", userRepo.Host+":"+userRepo.Port, err.Error())
	}
	return nil
}

func (userRepo *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var user user.User
	query := `SELECT id, email, firstname, lastname, phone, city, about, avatar_url, avatar_file_name, jwt_version, is_superuser, otp, otp_created_at, otp_attempts, reset_hash, reset_hash_created_at, reset_hash_attempts, is_active FROM users WHERE id=$1`
	err := userRepo.Pool.QueryRow(ctx, query, id).Scan(
		&user.UUID,
		&user.Email,
		&user.Firstname,
		&user.Lastname,
		&user.Phone,
		&user.City,
		&user.About,
		&user.AvatarUrl,
		&user.AvatarFileName,
		&user.JWTVersion,
		&user.IsSuperUser,
		&user.OTP,
		&user.OTPCreatedAt,
		&user.OTPAttempts,
		&user.ResetHash,
		&user.ResetHashCreatedAt,
		&user.ResetHashAttempts,
		&user.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, customerror.NewError("userRepo.GetUser", userRepo.Host+":"+userRepo.Port, err.Error())
	}
	return &user, nil
}

/*
field is interpolated into the query. It must be hardcoded by the
caller, never taken from user input!
*/
func (userRepo *UserRepository) GetUserByCredentials(ctx context.Context, field string, value any) (*user.User, error) {
	var user user.User
	query := fmt.Sprintf(`SELECT id, email, firstname, lastname, phone, city, about, avatar_url, avatar_file_name, jwt_version, is_superuser, otp, otp_created_at, otp_attempts, reset_hash, reset_hash_created_at, reset_hash_attempts, is_active, password_hash FROM users WHERE %s`, field) + `=$1`
	err := userRepo.Pool.QueryRow(ctx, query, value).Scan(
		&user.UUID,
		&user.Email,
		&user.Firstname,
		&user.Lastname,
		&user.Phone,
		&user.City,
		&user.About,
		&user.AvatarUrl,
		&user.AvatarFileName,
		&user.JWTVersion,
		&user.IsSuperUser,
		&user.OTP,
		&user.OTPCreatedAt,
		&user.OTPAttempts,
		&user.ResetHash,
		&user.ResetHashCreatedAt,
		&user.ResetHashAttempts,
		&user.IsActive,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, customerror.NewError("userRepo.GetUser", userRepo.Host+":"+userRepo.Port, err.Error())
	}
	return &user, nil
}

func (userRepo *UserRepository) UpdateUserSensetive(ctx context.Context, user *user.User) error {
	query := `UPDATE users SET email=$1, password_hash=$2, jwt_version=$3 WHERE id=$4`
	_, err := userRepo.Pool.Exec(ctx, query,
		user.Email,
		user.PasswordHash,
		user.JWTVersion,
		user.UUID,
	)
	if err != nil {
		return customerror.NewError("userRepo.UpdateUserSensetive", userRepo.Host+":"+userRepo.Port, err.Error())
	}
	return nil
}

func (userRepo *UserRepository) UpdateUser(ctx context.Context, user *user.User) error {
	query := `UPDATE users SET
		firstname=$1,
		lastname=$2,
		phone=$3,
		city=$4,
		about=$5,
		avatar_url=$6,
		avatar_file_name=$7,
		jwt_version=$8,
		otp=$9,
		otp_created_at=$10,
		otp_attempts=$11,
		reset_hash=$12,
		reset_hash_created_at=$13,
		reset_hash_attempts=$14,
		is_active=$15
		WHERE id=$16`
	command, err := userRepo.Pool.Exec(ctx, query,
		user.Firstname,
		user.Lastname,
		user.Phone,
		user.City,
		user.About,
		user.AvatarUrl,
		user.AvatarFileName,
		user.JWTVersion,
		user.OTP,
		user.OTPCreatedAt,
		user.OTPAttempts,
		user.ResetHash,
		user.ResetHashCreatedAt,
		user.ResetHashAttempts,
		user.IsActive,
		user.UUID,
	)
	if err != nil {
		return customerror.NewError("userRepo.UpdateUser", userRepo.Host+":"+userRepo.Port, err.Error())
	}
	if command.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (userRepo *UserRepository) InsertUser(ctx context.Context, user *user.User) error {
	query := `INSERT INTO users (id, email, firstname, lastname, phone, city, about, avatar_url, avatar_file_name, is_active, otp, otp_created_at, otp_attempts, password_hash)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	command, err := userRepo.Pool.Exec(ctx, query,
		user.UUID,
		user.Email,
		user.Firstname,
		user.Lastname,
		user.Phone,
		user.City,
		user.About,
		user.AvatarUrl,
		user.AvatarFileName,
		user.IsActive,
		user.OTP,
		user.OTPCreatedAt,
		user.OTPAttempts,
		user.PasswordHash,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return customerror.ErrUUIDAlreadyExists
			}
		}
		return customerror.NewError("userRepo.InsertUser", userRepo.Host+":"+userRepo.Port, err.Error())
	}
	if command.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
