package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/apperr"
	"storefront-service/internal/stores/postgres"
)

var (
	ErrUserNotFound       = fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	ErrAddressNotFound    = fmt.Errorf("%w: address not found", apperr.ErrNotFound)
	ErrDuplicateUser      = fmt.Errorf("%w: username or email already taken", apperr.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthorized)
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword returns ErrInvalidCredentials when password does not match hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

const userColumns = `id, username, email, first_name, last_name, is_staff, date_joined, password_hash`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsStaff, &u.DateJoined, &u.PasswordHash)
	return u, err
}

func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	hash, err := HashPassword(nu.Password)
	if err != nil {
		return User{}, err
	}
	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	u, err := scanUser(c.db.QueryRowContext(ctx, query,
		strings.TrimSpace(nu.Username), strings.ToLower(strings.TrimSpace(nu.Email)), hash, nu.FirstName, nu.LastName))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return User{}, ErrDuplicateUser
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// Authenticate looks the user up by username and checks the password.
func (c *Conf) Authenticate(ctx context.Context, username, password string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(c.db.QueryRowContext(ctx, query, strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if err := CheckPassword(u.PasswordHash, password); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Conf) GetUser(ctx context.Context, id int64) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(c.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (c *Conf) UpdateUser(ctx context.Context, id int64, uu UpdateUser) (User, error) {
	var hash *string
	if uu.Password != nil {
		h, err := HashPassword(*uu.Password)
		if err != nil {
			return User{}, err
		}
		hash = &h
	}
	if uu.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*uu.Email))
		uu.Email = &e
	}
	query := `
		UPDATE users SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			first_name = COALESCE($5, first_name),
			last_name = COALESCE($6, last_name)
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(c.db.QueryRowContext(ctx, query, id, uu.Username, uu.Email, hash, uu.FirstName, uu.LastName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if postgres.IsUniqueViolation(err) {
			return User{}, ErrDuplicateUser
		}
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// DeleteUser removes the account after re-checking its password.
func (c *Conf) DeleteUser(ctx context.Context, id int64, password string) error {
	return postgres.WithTx(ctx, c.db, func(tx *sql.Tx) error {
		var hash string
		err := tx.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&hash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to query user: %w", err)
		}
		if err := CheckPassword(hash, password); err != nil {
			return fmt.Errorf("%w: incorrect password", apperr.ErrUnauthorized)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}
