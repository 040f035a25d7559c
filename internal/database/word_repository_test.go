package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/pkg/models"
)

func setupDB(t *testing.T) {
	t.Helper()
	require.NoError(t, ConnectTest())
	t.Cleanup(func() { Close() })
}

func newTestUser(t *testing.T, name string) int64 {
	t.Helper()
	user := &models.User{Username: name, Email: name + "@example.com", Password: "secret"}
	require.NoError(t, NewUserRepository().Create(context.Background(), user))
	return user.ID
}

func TestWordCreateAndGet(t *testing.T) {
	setupDB(t)
	repo := NewWordRepository()
	ctx := context.Background()

	wordType, err := repo.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)

	word, err := repo.Create(ctx, CreateParams{
		Word:               "der Tisch",
		WordTypeID:         wordType.ID,
		English:            "table",
		Level:              "A1",
		Example:            "Der Tisch ist groß.",
		ExampleTranslation: "The table is big.",
	})
	require.NoError(t, err)

	got, err := repo.GetByTextAndType(ctx, "der Tisch", wordType.ID)
	require.NoError(t, err)
	assert.Equal(t, word.ID, got.ID)
	assert.Equal(t, "table", got.English)

	example, err := repo.GetExample(ctx, word.ID)
	require.NoError(t, err)
	require.NotNil(t, example)
	assert.Equal(t, "Der Tisch ist groß.", example.Example)
}

func TestWordCreateDuplicateReturnsWinner(t *testing.T) {
	setupDB(t)
	repo := NewWordRepository()
	ctx := context.Background()

	wordType, err := repo.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)

	first, err := repo.Create(ctx, CreateParams{Word: "der Tisch", WordTypeID: wordType.ID, English: "table", Level: "A1"})
	require.NoError(t, err)

	second, err := repo.Create(ctx, CreateParams{Word: "der Tisch", WordTypeID: wordType.ID, English: "desk", Level: "A2"})
	require.ErrorIs(t, err, apperr.ErrDuplicateCatalogWord)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "table", second.English)
}

func TestWordSameTextDifferentTypes(t *testing.T) {
	setupDB(t)
	repo := NewWordRepository()
	ctx := context.Background()

	noun, err := repo.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)
	verb, err := repo.GetOrCreateWordType(ctx, "Verb")
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateParams{Word: "laufen", WordTypeID: noun.ID, English: "running", Level: "A1"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateParams{Word: "laufen", WordTypeID: verb.ID, English: "to run", Level: "A1"})
	require.NoError(t, err)

	words, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, words, 2)
}

func TestDeleteIfOrphaned(t *testing.T) {
	setupDB(t)
	repo := NewWordRepository()
	userWords := NewUserWordRepository()
	ctx := context.Background()
	userID := newTestUser(t, "anna")

	wordType, err := repo.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)
	word, err := repo.Create(ctx, CreateParams{Word: "der Tisch", WordTypeID: wordType.ID, English: "table", Level: "A1"})
	require.NoError(t, err)

	uw, err := userWords.Create(ctx, userID, word.ID)
	require.NoError(t, err)

	deleted, err := repo.DeleteIfOrphaned(ctx, word.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, userWords.Delete(ctx, uw.ID))

	deleted, err = repo.DeleteIfOrphaned(ctx, word.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByID(ctx, word.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteOrphansSweep(t *testing.T) {
	setupDB(t)
	repo := NewWordRepository()
	ctx := context.Background()
	userID := newTestUser(t, "anna")

	wordType, err := repo.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)
	kept, err := repo.Create(ctx, CreateParams{Word: "der Tisch", WordTypeID: wordType.ID, English: "table", Level: "A1"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateParams{Word: "der Stuhl", WordTypeID: wordType.ID, English: "chair", Level: "A1"})
	require.NoError(t, err)

	_, err = NewUserWordRepository().Create(ctx, userID, kept.ID)
	require.NoError(t, err)

	removed, err := repo.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	words, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "der Tisch", words[0].Word)
}
