// Package pgtest opens a migrated database for integration tests.
package pgtest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront-service/internal/stores/postgres"
)

const EnvURL = "TEST_DATABASE_URL"

// Open connects to TEST_DATABASE_URL, applies migrations and empties every table.
// The test is skipped when the variable is unset.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv(EnvURL)
	if dsn == "" {
		t.Skipf("%s not set", EnvURL)
	}
	db, err := postgres.OpenDB(context.Background(), dsn, 5, 5)
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(db))
	_, err = db.Exec(`TRUNCATE users, categories, products, abouts, legals, testimonials, instagrams RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SeedUser inserts a user row with an unusable password hash and returns its id.
func SeedUser(t *testing.T, db *sql.DB, username string, staff bool) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`INSERT INTO users (username, email, password_hash, is_staff) VALUES ($1, $2, '!', $3) RETURNING id`,
		username, username+"@example.com", staff).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedProduct inserts a product and returns its id.
func SeedProduct(t *testing.T, db *sql.DB, name, price string, stock int) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`INSERT INTO products (name, description, price, stock, image) VALUES ($1, $1, $2, $3, 'img.png') RETURNING id`,
		name, price, stock).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedAddress inserts an address for userID and returns its id.
func SeedAddress(t *testing.T, db *sql.DB, userID int64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(`INSERT INTO addresses (user_id, name, phone_number, pin_code, street, city, state)
		VALUES ($1, 'Home', '9999999999', '560001', 'MG Road', 'Bengaluru', 'KA') RETURNING id`, userID).Scan(&id)
	require.NoError(t, err)
	return id
}
