package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const addressColumns = `id, user_id, name, phone_number, pin_code, street, landmark, city, state, created_at, updated_at`

func scanAddress(row interface{ Scan(...any) error }) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.PhoneNumber, &a.PinCode, &a.Street, &a.Landmark,
		&a.City, &a.State, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (c *Conf) ListAddresses(ctx context.Context, userID int64) ([]Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 ORDER BY id`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return addresses, nil
}

func (c *Conf) InsertAddress(ctx context.Context, userID int64, na NewAddress) (Address, error) {
	query := `
		INSERT INTO addresses (user_id, name, phone_number, pin_code, street, landmark, city, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + addressColumns
	a, err := scanAddress(c.db.QueryRowContext(ctx, query, userID, na.Name, na.PhoneNumber, na.PinCode,
		na.Street, na.Landmark, na.City, na.State))
	if err != nil {
		return Address{}, fmt.Errorf("failed to insert address: %w", err)
	}
	return a, nil
}

// GetAddress returns ErrAddressNotFound for addresses that belong to another user.
func (c *Conf) GetAddress(ctx context.Context, userID, addressID int64) (Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`
	a, err := scanAddress(c.db.QueryRowContext(ctx, query, addressID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Address{}, ErrAddressNotFound
		}
		return Address{}, fmt.Errorf("failed to query address: %w", err)
	}
	return a, nil
}

func (c *Conf) UpdateAddress(ctx context.Context, userID, addressID int64, na NewAddress) (Address, error) {
	query := `
		UPDATE addresses SET
			name = $3, phone_number = $4, pin_code = $5, street = $6,
			landmark = $7, city = $8, state = $9, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + addressColumns
	a, err := scanAddress(c.db.QueryRowContext(ctx, query, addressID, userID, na.Name, na.PhoneNumber,
		na.PinCode, na.Street, na.Landmark, na.City, na.State))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Address{}, ErrAddressNotFound
		}
		return Address{}, fmt.Errorf("failed to update address: %w", err)
	}
	return a, nil
}

func (c *Conf) DeleteAddress(ctx context.Context, userID, addressID int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrAddressNotFound
	}
	return nil
}
