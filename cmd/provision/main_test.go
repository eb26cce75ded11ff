package main

import (
	"context"
	"testing"

	"credentials_service/internal/lib/password"
	"credentials_service/internal/storage"
	"credentials_service/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	user, err := createUser(ctx, store, "a@x.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.True(t, password.Verify("secret", user.PasswordHash))

	got, err := store.UserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = createUser(ctx, store, "a@x.com", "other")
	require.ErrorIs(t, err, storage.ErrUserExists)
}

func TestCreateUser_EmptyPassword(t *testing.T) {
	_, err := createUser(context.Background(), memory.New(), "a@x.com", "")
	require.ErrorIs(t, err, password.ErrEmptyPassword)
}

func TestCreateKey(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	user, err := createUser(ctx, store, "a@x.com", "secret")
	require.NoError(t, err)

	key, err := createKey(ctx, store, user.ID)
	require.NoError(t, err)

	cred, err := store.Credential(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, cred.OwnerUserID)

	_, err = createKey(ctx, store, "missing")
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}
