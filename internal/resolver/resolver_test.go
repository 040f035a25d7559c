package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
	"github.com/example/wortschatz/internal/wordinfo"
	"github.com/example/wortschatz/pkg/models"
)

type fakeLookup struct {
	infos       map[string]*wordinfo.WordInfo
	lookupErr   error
	suggestions []wordinfo.Suggestion
	searchErr   error
}

func (f *fakeLookup) Lookup(ctx context.Context, word string) (*wordinfo.WordInfo, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if info, ok := f.infos[word]; ok {
		return info, nil
	}
	return nil, wordinfo.ErrWordNotFound
}

func (f *fakeLookup) Search(ctx context.Context, word, wordType string) ([]wordinfo.Suggestion, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.suggestions, nil
}

func setupDB(t *testing.T) {
	t.Helper()
	require.NoError(t, database.ConnectTest())
	t.Cleanup(func() { database.Close() })
}

func createUser(t *testing.T, name string) int64 {
	t.Helper()
	repo := database.NewUserRepository()
	user := &models.User{Username: name, Email: name + "@example.com", Password: "secret"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user.ID
}

func tischInfo() *wordinfo.WordInfo {
	return &wordinfo.WordInfo{
		Word:        "der Tisch",
		Level:       "A1",
		WordType:    "Nomen",
		Translation: "table",
		Examples: []wordinfo.ExamplePair{
			{Example: "Der Tisch ist groß.", Translation: "The table is big."},
		},
	}
}

func TestResolveOrCreateFromLookup(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	lookup := &fakeLookup{infos: map[string]*wordinfo.WordInfo{
		"Tisch":     tischInfo(),
		"der Tisch": tischInfo(),
	}}
	words := database.NewWordRepository()
	r := New(lookup, words, logger.NewNop())
	ctx := context.Background()

	word, err := r.ResolveOrCreate(ctx, userID, "Tisch", CallerFields{})
	require.NoError(t, err)
	assert.Equal(t, "der Tisch", word.Word)
	assert.Equal(t, "table", word.English)
	assert.Equal(t, "A1", word.Level)

	wordType, err := words.GetWordTypeByID(ctx, word.WordTypeID)
	require.NoError(t, err)
	assert.Equal(t, "Nomen", wordType.Name)

	example, err := words.GetExample(ctx, word.ID)
	require.NoError(t, err)
	require.NotNil(t, example)
	assert.Equal(t, "Der Tisch ist groß.", example.Example)
	assert.Equal(t, "The table is big.", example.Translation)
}

func TestResolveOrCreateDedupesOnResolvedKey(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	lookup := &fakeLookup{infos: map[string]*wordinfo.WordInfo{
		"Tisch":     tischInfo(),
		"der Tisch": tischInfo(),
	}}
	r := New(lookup, database.NewWordRepository(), logger.NewNop())
	ctx := context.Background()

	first, err := r.ResolveOrCreate(ctx, userID, "Tisch", CallerFields{})
	require.NoError(t, err)
	second, err := r.ResolveOrCreate(ctx, userID, "der Tisch", CallerFields{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := database.NewWordRepository().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestResolveOrCreateCoercesUnknownLevel(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	info := tischInfo()
	info.Level = "X7"
	lookup := &fakeLookup{infos: map[string]*wordinfo.WordInfo{"Tisch": info}}
	r := New(lookup, database.NewWordRepository(), logger.NewNop())

	word, err := r.ResolveOrCreate(context.Background(), userID, "Tisch", CallerFields{})
	require.NoError(t, err)
	assert.Equal(t, models.LevelUnknown, word.Level)
}

func TestResolveOrCreateWordTypeFallback(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	info := &wordinfo.WordInfo{Word: "laufen", Level: "A1", Translation: "to run"}
	lookup := &fakeLookup{infos: map[string]*wordinfo.WordInfo{"laufen": info}}
	words := database.NewWordRepository()
	r := New(lookup, words, logger.NewNop())
	ctx := context.Background()

	word, err := r.ResolveOrCreate(ctx, userID, "laufen", CallerFields{})
	require.NoError(t, err)

	wordType, err := words.GetWordTypeByID(ctx, word.WordTypeID)
	require.NoError(t, err)
	assert.Equal(t, "Verb", wordType.Name)
}

func TestResolveOrCreateCallerTypeWins(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	lookup := &fakeLookup{infos: map[string]*wordinfo.WordInfo{"Tisch": tischInfo()}}
	words := database.NewWordRepository()
	r := New(lookup, words, logger.NewNop())
	ctx := context.Background()

	word, err := r.ResolveOrCreate(ctx, userID, "Tisch", CallerFields{WordType: "Substantiv"})
	require.NoError(t, err)

	wordType, err := words.GetWordTypeByID(ctx, word.WordTypeID)
	require.NoError(t, err)
	assert.Equal(t, "Substantiv", wordType.Name)
}

func TestResolveOrCreateManualWord(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	lookup := &fakeLookup{}
	r := New(lookup, database.NewWordRepository(), logger.NewNop())
	ctx := context.Background()

	word, err := r.ResolveOrCreate(ctx, userID, "Dingsbums", CallerFields{
		Translation: "thingamajig",
		Level:       "B2",
		WordType:    "Nomen",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dingsbums", word.Word)
	assert.Equal(t, "thingamajig", word.English)
	assert.Equal(t, "B2", word.Level)

	var marked int
	err = database.DB.Get(&marked,
		database.DB.Rebind("SELECT COUNT(*) FROM non_parsed_words WHERE word_id = ? AND user_id = ?"),
		word.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
}

func TestResolveOrCreateNotResolvable(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	lookup := &fakeLookup{suggestions: []wordinfo.Suggestion{
		{Word: "Tisch", WordType: "Nomen", Level: "A1"},
		{Word: "tischen", WordType: "Verb", Level: "C2"},
	}}
	r := New(lookup, database.NewWordRepository(), logger.NewNop())

	_, err := r.ResolveOrCreate(context.Background(), userID, "Tischh", CallerFields{Translation: "table"})
	require.ErrorIs(t, err, apperr.ErrWordNotResolvable)

	var nre *apperr.NotResolvableError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, "Tischh", nre.Word)
	require.Len(t, nre.Suggestions, 2)
	assert.Equal(t, "Tisch", nre.Suggestions[0].Word)
}

func TestResolveOrCreateCapsSuggestions(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	lookup := &fakeLookup{}
	for i := 0; i < 30; i++ {
		lookup.suggestions = append(lookup.suggestions, wordinfo.Suggestion{Word: fmt.Sprintf("Wort%d", i)})
	}
	r := New(lookup, database.NewWordRepository(), logger.NewNop())

	_, err := r.ResolveOrCreate(context.Background(), userID, "Wort", CallerFields{})
	var nre *apperr.NotResolvableError
	require.ErrorAs(t, err, &nre)
	assert.Len(t, nre.Suggestions, maxSuggestions)
}

func TestResolveOrCreateSearchFailureKeepsVerdict(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	lookup := &fakeLookup{searchErr: errors.New("search down")}
	r := New(lookup, database.NewWordRepository(), logger.NewNop())

	_, err := r.ResolveOrCreate(context.Background(), userID, "Tischh", CallerFields{})
	require.ErrorIs(t, err, apperr.ErrWordNotResolvable)

	var nre *apperr.NotResolvableError
	require.ErrorAs(t, err, &nre)
	assert.Empty(t, nre.Suggestions)
}

func TestResolveOrCreateLookupUnavailable(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	lookup := &fakeLookup{lookupErr: wordinfo.ErrUnavailable}
	r := New(lookup, database.NewWordRepository(), logger.NewNop())

	_, err := r.ResolveOrCreate(context.Background(), userID, "Tisch", CallerFields{})
	assert.ErrorIs(t, err, apperr.ErrLookupUnavailable)
}

func TestResolveOrCreateEmptyInput(t *testing.T) {
	setupDB(t)
	userID := createUser(t, "anna")
	r := New(&fakeLookup{}, database.NewWordRepository(), logger.NewNop())

	_, err := r.ResolveOrCreate(context.Background(), userID, "   ", CallerFields{})
	assert.ErrorIs(t, err, apperr.ErrWordNotResolvable)
}
