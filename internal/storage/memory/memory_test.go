package memory

import (
	"context"
	"testing"

	"credentials_service/internal/models"
	"credentials_service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Storage {
	t.Helper()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveUser(ctx, models.User{ID: "u1", Email: "a@x.com", PasswordHash: "h1"}))
	require.NoError(t, s.SaveUser(ctx, models.User{ID: "u2", Email: "b@x.com", PasswordHash: "h2"}))
	require.NoError(t, s.SaveCredential(ctx, "k1", "u1"))

	return s
}

func TestSaveUser_Duplicates(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.SaveUser(ctx, models.User{ID: "u1", Email: "other@x.com"})
	require.ErrorIs(t, err, storage.ErrUserExists)

	err = s.SaveUser(ctx, models.User{ID: "u3", Email: "a@x.com"})
	require.ErrorIs(t, err, storage.ErrUserExists)
}

func TestSaveCredential(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.ErrorIs(t, s.SaveCredential(ctx, "k9", "ghost"), storage.ErrUserNotFound)
	require.ErrorIs(t, s.SaveCredential(ctx, "k1", "u2"), storage.ErrCredentialExists)
}

func TestUserByEmail(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	u, err := s.UserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "u1", Email: "a@x.com", PasswordHash: "h1"}, u)

	_, err = s.UserByEmail(ctx, "A@x.com")
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestCredential_JoinsOwner(t *testing.T) {
	s := seeded(t)

	cred, err := s.Credential(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", cred.Key)
	assert.Equal(t, "u1", cred.OwnerUserID)
	require.NotNil(t, cred.Owner)
	assert.Equal(t, "a@x.com", cred.Owner.Email)

	_, err = s.Credential(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrCredentialNotFound)
}

func TestRotateCredential(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	ok, err := s.RotateCredential(ctx, "k1", "k1-next")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.Credential(ctx, "k1")
	require.ErrorIs(t, err, storage.ErrCredentialNotFound)

	cred, err := s.Credential(ctx, "k1-next")
	require.NoError(t, err)
	assert.Equal(t, "u1", cred.OwnerUserID)

	ok, err = s.RotateCredential(ctx, "k1", "k1-other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRotateCredential_TargetTaken(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCredential(ctx, "k2", "u2"))

	_, err := s.RotateCredential(ctx, "k1", "k2")
	require.ErrorIs(t, err, storage.ErrCredentialExists)

	cred, err := s.Credential(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "u1", cred.OwnerUserID)
}

func TestDeleteCredentialOwnedBy(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	ok, err := s.DeleteCredentialOwnedBy(ctx, "k1", "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DeleteCredentialOwnedBy(ctx, "k1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteCredentialOwnedBy(ctx, "k1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
