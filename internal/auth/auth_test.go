package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
	"github.com/example/wortschatz/pkg/models"
)

func setupService(t *testing.T) (*Service, *database.UserRepository) {
	t.Helper()
	require.NoError(t, database.ConnectTest())
	t.Cleanup(func() { database.Close() })

	users := database.NewUserRepository()
	return NewService(users, logger.NewNop(), "access-secret", "refresh-secret"), users
}

func registerUser(t *testing.T, users *database.UserRepository, name, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Username: name, Email: name + "@example.com", Password: hash}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestAuthenticate(t *testing.T) {
	service, users := setupService(t)
	registerUser(t, users, "anna", "pa55word")
	ctx := context.Background()

	user, err := service.Authenticate(ctx, "anna", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, "anna", user.Username)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	service, users := setupService(t)
	created := registerUser(t, users, "anna", "pa55word")
	ctx := context.Background()

	_, err := service.Authenticate(ctx, "anna", "wrong")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	got, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LoginAttempts)

	// A successful login resets the counter.
	_, err = service.Authenticate(ctx, "anna", "pa55word")
	require.NoError(t, err)
	got, err = users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, got.LoginAttempts)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	service, _ := setupService(t)

	_, err := service.Authenticate(context.Background(), "nobody", "pa55word")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	service, users := setupService(t)
	user := registerUser(t, users, "anna", "pa55word")
	ctx := context.Background()

	token, err := service.CreateAccessToken(user)
	require.NoError(t, err)

	got, err := service.CurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	service, users := setupService(t)
	user := registerUser(t, users, "anna", "pa55word")

	refresh, err := service.CreateRefreshToken(user)
	require.NoError(t, err)

	_, err = service.CurrentUser(context.Background(), refresh)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestValidateRefreshToken(t *testing.T) {
	service, users := setupService(t)
	user := registerUser(t, users, "anna", "pa55word")

	refresh, err := service.CreateRefreshToken(user)
	require.NoError(t, err)

	username, err := service.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "anna", username)

	access, err := service.CreateAccessToken(user)
	require.NoError(t, err)
	_, err = service.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestCurrentUserGarbageToken(t *testing.T) {
	service, _ := setupService(t)

	_, err := service.CurrentUser(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}
