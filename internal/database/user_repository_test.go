package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/pkg/models"
)

func TestUserCreateFirstBecomesAdmin(t *testing.T) {
	setupDB(t)
	repo := NewUserRepository()
	ctx := context.Background()

	first := &models.User{Username: "anna", Email: "anna@example.com", Password: "secret"}
	require.NoError(t, repo.Create(ctx, first))
	second := &models.User{Username: "ben", Email: "ben@example.com", Password: "secret"}
	require.NoError(t, repo.Create(ctx, second))

	isAdmin, err := repo.HasRole(ctx, first.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	isAdmin, err = repo.HasRole(ctx, second.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	isUser, err := repo.HasRole(ctx, second.ID, models.RoleUser)
	require.NoError(t, err)
	assert.True(t, isUser)
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	setupDB(t)
	repo := NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "anna", Email: "anna@example.com", Password: "secret"}))

	err := repo.Create(ctx, &models.User{Username: "anna", Email: "other@example.com", Password: "secret"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUserDefaultLevel(t *testing.T) {
	setupDB(t)
	repo := NewUserRepository()
	ctx := context.Background()

	user := &models.User{Username: "anna", Email: "anna@example.com", Password: "secret"}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "A1", got.Level)
}

func TestUserLoginBookkeeping(t *testing.T) {
	setupDB(t)
	repo := NewUserRepository()
	ctx := context.Background()

	user := &models.User{Username: "anna", Email: "anna@example.com", Password: "secret"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.RecordFailedLogin(ctx, user.ID))
	require.NoError(t, repo.RecordFailedLogin(ctx, user.ID))
	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LoginAttempts)
	assert.Nil(t, got.LastLogin)

	require.NoError(t, repo.RecordLogin(ctx, user.ID))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, got.LoginAttempts)
	assert.NotNil(t, got.LastLogin)
}

func TestUserDeleteCascades(t *testing.T) {
	setupDB(t)
	users := NewUserRepository()
	words := NewWordRepository()
	userWords := NewUserWordRepository()
	ctx := context.Background()

	user := &models.User{Username: "anna", Email: "anna@example.com", Password: "secret"}
	require.NoError(t, users.Create(ctx, user))

	wordType, err := words.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)
	word, err := words.Create(ctx, CreateParams{Word: "der Tisch", WordTypeID: wordType.ID, English: "table", Level: "A1"})
	require.NoError(t, err)
	uw, err := userWords.Create(ctx, user.ID, word.ID)
	require.NoError(t, err)

	require.NoError(t, users.Delete(ctx, user.ID))

	_, err = userWords.GetByID(ctx, uw.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
