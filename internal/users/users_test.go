package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/stores/postgres/pgtest"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong horse"), apperr.ErrUnauthorized)
}

func TestRoles(t *testing.T) {
	assert.Equal(t, []string{"USER"}, User{}.Roles())
	assert.Equal(t, []string{"USER", "ADMIN"}, User{IsStaff: true}.Roles())
}

func TestUsersIntegration(t *testing.T) {
	db := pgtest.Open(t)
	ctx := context.Background()
	conf, err := NewConf(db)
	require.NoError(t, err)

	u, err := conf.InsertUser(ctx, NewUser{Username: "alice", Email: "Alice@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = conf.InsertUser(ctx, NewUser{Username: "alice", Email: "other@example.com", Password: "password1"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := conf.Authenticate(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = conf.Authenticate(ctx, "alice", "nope")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	first := "Alice"
	updated, err := conf.UpdateUser(ctx, u.ID, UpdateUser{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "alice", updated.Username)

	addr, err := conf.InsertAddress(ctx, u.ID, NewAddress{Name: "Home", PhoneNumber: "9999999999", PinCode: "560001",
		Street: "MG Road", City: "Bengaluru", State: "KA"})
	require.NoError(t, err)

	bob, err := conf.InsertUser(ctx, NewUser{Username: "bob", Email: "bob@example.com", Password: "password2"})
	require.NoError(t, err)
	_, err = conf.GetAddress(ctx, bob.ID, addr.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, conf.DeleteAddress(ctx, bob.ID, addr.ID), apperr.ErrNotFound)

	list, err := conf.ListAddresses(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, conf.DeleteUser(ctx, u.ID, "nope"), apperr.ErrUnauthorized)
	require.NoError(t, conf.DeleteUser(ctx, u.ID, "password1"))
	_, err = conf.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
