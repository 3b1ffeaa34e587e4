package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courseshop/internal/domain/model"
	apperrors "github.com/target/courseshop/internal/errors"
	"github.com/target/courseshop/internal/mocks/memory"
	"golang.org/x/crypto/bcrypt"
)

func newTestAccountService(t *testing.T) (*AccountService, *memory.UserRepo) {
	t.Helper()
	users := memory.NewUserRepo()
	svc, err := NewAccountService(AccountServiceOptions{Users: users, Cost: bcrypt.MinCost})
	require.NoError(t, err)
	return svc, users
}

func validRegistration() model.RegisterRequest {
	return model.RegisterRequest{
		Email:    "  Ada@Example.com ",
		Name:     "Ada",
		Password: "secret1",
		Confirm:  "secret1",
	}
}

func TestNewAccountService_RequiresRepo(t *testing.T) {
	_, err := NewAccountService(AccountServiceOptions{})
	require.Error(t, err)

	_, err = NewAccountService(AccountServiceOptions{Users: memory.NewUserRepo(), Cost: 99})
	require.Error(t, err)
}

func TestAccountService_RegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestAccountService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountService_RegisterErrors(t *testing.T) {
	svc, users := newTestAccountService(t)
	ctx := context.Background()

	bad := validRegistration()
	bad.Confirm = "different"
	_, err := svc.Register(ctx, bad)
	require.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "passwords do not match")

	_, err = svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	_, err = svc.Register(ctx, validRegistration())
	require.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "email", apperrors.GetField(err))

	users.Err = errors.New("db down")
	_, err = svc.Register(ctx, model.RegisterRequest{Email: "b@example.com", Name: "B", Password: "secret1", Confirm: "secret1"})
	require.Error(t, err)
	assert.False(t, apperrors.IsConflict(err))
}

func TestAccountService_UpdateProfile(t *testing.T) {
	svc, _ := newTestAccountService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	avatar := "/images/ada.png"
	updated, err := svc.UpdateProfile(ctx, u.ID, model.UpdateProfileRequest{Name: " Ada L ", AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", updated.Name)
	require.NotNil(t, updated.AvatarURL)
	assert.Equal(t, avatar, *updated.AvatarURL)

	_, err = svc.UpdateProfile(ctx, u.ID, model.UpdateProfileRequest{Name: "  "})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.UpdateProfile(ctx, "missing", model.UpdateProfileRequest{Name: "X"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.GetByID(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}
