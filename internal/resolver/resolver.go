package resolver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
	"github.com/example/wortschatz/internal/wordinfo"
	"github.com/example/wortschatz/pkg/models"
)

// maxSuggestions caps the candidate list attached to a resolution failure.
const maxSuggestions = 20

// fallbackWordType is used when neither the caller nor the lookup names a
// part of speech.
const fallbackWordType = "Verb"

// Lookup is the external dictionary collaborator.
type Lookup interface {
	Lookup(ctx context.Context, word string) (*wordinfo.WordInfo, error)
	Search(ctx context.Context, word, wordType string) ([]wordinfo.Suggestion, error)
}

// CallerFields are the optional word attributes supplied alongside the raw
// text. When the lookup fails, a complete set of Translation, Level and
// WordType lets the word be created manually.
type CallerFields struct {
	Translation        string
	Level              string
	WordType           string
	Example            string
	ExampleTranslation string
}

func (f CallerFields) complete() bool {
	return f.Translation != "" && f.Level != "" && f.WordType != ""
}

// Resolver maps raw word text to exactly one catalog word, creating it when
// absent and never duplicating it.
type Resolver struct {
	lookup Lookup
	words  *database.WordRepository
	log    *logger.Logger
	rnd    *rand.Rand
}

// New creates a resolver around the given lookup collaborator.
func New(lookup Lookup, words *database.WordRepository, log *logger.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		words:  words,
		log:    log.With("component", "resolver"),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ResolveOrCreate resolves rawText to a catalog word. Resolution order:
//
//  1. the dictionary lookup, whose normalized form and metadata win;
//  2. a complete set of caller fields, recorded as a non-parsed word against
//     the requesting user;
//  3. failure with up to 20 search suggestions.
//
// An existing catalog word for the resolved (text, word type) key is returned
// unchanged; catalog truth is append-only here. Concurrent creation of the
// same key degrades to returning the winner.
func (r *Resolver) ResolveOrCreate(ctx context.Context, userID int64, rawText string, fields CallerFields) (*models.Word, error) {
	const op = "resolver.ResolveOrCreate"

	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, &apperr.NotResolvableError{Word: rawText}
	}

	info, err := r.lookup.Lookup(ctx, rawText)
	switch {
	case err == nil:
		return r.fromLookup(ctx, info, fields)
	case errors.Is(err, wordinfo.ErrWordNotFound):
		if fields.complete() {
			return r.fromCallerFields(ctx, userID, rawText, fields)
		}
		return nil, r.notResolvable(ctx, rawText, fields.WordType)
	case errors.Is(err, wordinfo.ErrUnavailable), errors.Is(err, wordinfo.ErrBadPage):
		return nil, apperr.E(op, apperr.ErrLookupUnavailable, err.Error())
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

func (r *Resolver) fromLookup(ctx context.Context, info *wordinfo.WordInfo, fields CallerFields) (*models.Word, error) {
	typeName := fields.WordType
	if typeName == "" {
		typeName = info.WordType
	}
	if typeName == "" {
		typeName = fallbackWordType
	}

	wordType, err := r.words.GetOrCreateWordType(ctx, typeName)
	if err != nil {
		return nil, err
	}

	if existing, err := r.words.GetByTextAndType(ctx, info.Word, wordType.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	english := info.Translation
	if english == "" {
		english = fields.Translation
	}

	example, exampleTranslation := r.pickExample(info.Examples)
	if example == "" && fields.Example != "" {
		example = fields.Example
		exampleTranslation = fields.ExampleTranslation
	}

	return r.create(ctx, database.CreateParams{
		Word:               info.Word,
		WordTypeID:         wordType.ID,
		English:            english,
		Level:              models.CoerceLevel(info.Level),
		Example:            example,
		ExampleTranslation: exampleTranslation,
	})
}

func (r *Resolver) fromCallerFields(ctx context.Context, userID int64, rawText string, fields CallerFields) (*models.Word, error) {
	wordType, err := r.words.GetOrCreateWordType(ctx, fields.WordType)
	if err != nil {
		return nil, err
	}

	if existing, err := r.words.GetByTextAndType(ctx, rawText, wordType.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	return r.create(ctx, database.CreateParams{
		Word:               rawText,
		WordTypeID:         wordType.ID,
		English:            fields.Translation,
		Level:              models.CoerceLevel(fields.Level),
		Example:            fields.Example,
		ExampleTranslation: fields.ExampleTranslation,
		NonParsedUserID:    userID,
	})
}

func (r *Resolver) create(ctx context.Context, params database.CreateParams) (*models.Word, error) {
	word, err := r.words.Create(ctx, params)
	if errors.Is(err, apperr.ErrDuplicateCatalogWord) {
		// Lost an insert race; Create re-fetched the winner for us.
		r.log.Debug("catalog insert race recovered", "word", params.Word)
		return word, nil
	}
	if err != nil {
		return nil, err
	}
	r.log.Info("catalog word created",
		"word", word.Word, "level", word.Level, "manual", params.NonParsedUserID != 0)
	return word, nil
}

func (r *Resolver) notResolvable(ctx context.Context, rawText, wordType string) error {
	// Suggestions are best-effort: a search failure still reports the
	// resolution failure, just with an empty candidate list.
	suggestions, err := r.lookup.Search(ctx, rawText, wordType)
	if err != nil {
		r.log.Warn("suggestion search failed", "word", rawText, "error", err)
		suggestions = nil
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	out := make([]apperr.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, apperr.Suggestion{
			Word:     s.Word,
			WordType: s.WordType,
			Level:    s.Level,
			URL:      s.URL,
		})
	}
	return &apperr.NotResolvableError{Word: rawText, Suggestions: out}
}

// pickExample selects one example uniformly among the candidates that carry
// both a sentence and a translation. No qualifying candidate means no
// example.
func (r *Resolver) pickExample(candidates []wordinfo.ExamplePair) (string, string) {
	qualified := make([]wordinfo.ExamplePair, 0, len(candidates))
	for _, c := range candidates {
		if c.Example != "" && c.Translation != "" {
			qualified = append(qualified, c)
		}
	}
	if len(qualified) == 0 {
		return "", ""
	}
	pick := qualified[r.rnd.Intn(len(qualified))]
	return pick.Example, pick.Translation
}
