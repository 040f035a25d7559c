package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactCommitsAsUnit(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	userID := newTestUser(t, "anna")

	words := NewWordRepository()
	userWords := NewUserWordRepository()
	topics := NewTopicRepository()

	wordType, err := words.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)
	word, err := words.Create(ctx, CreateParams{Word: "der Tisch", WordTypeID: wordType.ID, English: "table", Level: "A1"})
	require.NoError(t, err)

	var userWordID int64
	err = Transact(ctx, func(ctx context.Context) error {
		userWord, err := userWords.Create(ctx, userID, word.ID)
		if err != nil {
			return err
		}
		userWordID = userWord.ID
		if err := userWords.UpsertTranslation(ctx, userWord.ID, "desk"); err != nil {
			return err
		}
		topic, err := topics.GetOrCreate(ctx, "Möbel")
		if err != nil {
			return err
		}
		return userWords.AttachTopic(ctx, userWord.ID, topic.ID)
	})
	require.NoError(t, err)

	row, err := userWords.GetRow(ctx, userWordID)
	require.NoError(t, err)
	assert.Equal(t, "desk", row.OverrideTranslation.String)
	names, err := userWords.GetTopicNames(ctx, userWordID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Möbel"}, names)
}

func TestTransactRollsBackEverything(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	userID := newTestUser(t, "anna")

	words := NewWordRepository()
	userWords := NewUserWordRepository()

	wordType, err := words.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)
	word, err := words.Create(ctx, CreateParams{Word: "der Tisch", WordTypeID: wordType.ID, English: "table", Level: "A1"})
	require.NoError(t, err)

	failure := errors.New("attach failed")
	err = Transact(ctx, func(ctx context.Context) error {
		userWord, err := userWords.Create(ctx, userID, word.ID)
		if err != nil {
			return err
		}
		if err := userWords.UpsertTranslation(ctx, userWord.ID, "desk"); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	// Neither the user word nor the override survived the rollback.
	count, err := words.CountReferences(ctx, word.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	var overrides int
	require.NoError(t, DB.GetContext(ctx, &overrides, "SELECT COUNT(*) FROM users_words_translations"))
	assert.Zero(t, overrides)
}

func TestTransactJoinsOuterTransaction(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	userID := newTestUser(t, "anna")

	words := NewWordRepository()
	userWords := NewUserWordRepository()

	wordType, err := words.GetOrCreateWordType(ctx, "Nomen")
	require.NoError(t, err)

	failure := errors.New("outer failed")
	err = Transact(ctx, func(ctx context.Context) error {
		// Create joins the outer transaction instead of opening its own.
		word, err := words.Create(ctx, CreateParams{Word: "der Tisch", WordTypeID: wordType.ID, English: "table", Level: "A1"})
		if err != nil {
			return err
		}
		if err := Transact(ctx, func(ctx context.Context) error {
			_, err := userWords.Create(ctx, userID, word.ID)
			return err
		}); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	// The outer rollback took the inner work with it.
	_, err = words.GetByTextAndType(ctx, "der Tisch", wordType.ID)
	assert.Error(t, err)
}
