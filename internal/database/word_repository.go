package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/pkg/models"
)

// WordRepository handles database operations for the shared word catalog.
type WordRepository struct{}

// NewWordRepository creates a new repository instance
func NewWordRepository() *WordRepository {
	return &WordRepository{}
}

// GetByID returns a catalog word by ID.
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*models.Word, error) {
	e := ext(ctx)
	var word models.Word
	query := e.Rebind("SELECT id, word, word_type_id, english, level FROM words WHERE id = ?")
	err := sqlx.GetContext(ctx, e, &word, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("words.GetByID", apperr.ErrNotFound, fmt.Sprintf("word id=%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %w", err)
	}
	return &word, nil
}

// GetByTextAndType returns the catalog word for a (text, word type) natural
// key, or apperr.ErrNotFound.
func (r *WordRepository) GetByTextAndType(ctx context.Context, text string, wordTypeID int64) (*models.Word, error) {
	e := ext(ctx)
	var word models.Word
	query := e.Rebind("SELECT id, word, word_type_id, english, level FROM words WHERE word = ? AND word_type_id = ?")
	err := sqlx.GetContext(ctx, e, &word, query, text, wordTypeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("words.GetByTextAndType", apperr.ErrNotFound, fmt.Sprintf("word %q", text))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word by text and type: %w", err)
	}
	return &word, nil
}

// GetOrCreateWordType resolves a word type by name, creating it on first use.
func (r *WordRepository) GetOrCreateWordType(ctx context.Context, name string) (*models.WordType, error) {
	wt, err := r.getWordType(ctx, name)
	if err == nil {
		return wt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get word type: %w", err)
	}

	e := ext(ctx)
	insert := e.Rebind("INSERT INTO word_types (name) VALUES (?)")
	if _, err := e.ExecContext(ctx, insert, name); err != nil {
		// Concurrent first-time insert of the same name: re-fetch the winner.
		if wt, refetchErr := r.getWordType(ctx, name); refetchErr == nil {
			return wt, nil
		}
		return nil, fmt.Errorf("failed to create word type: %w", err)
	}
	return r.getWordType(ctx, name)
}

// GetWordTypeByName returns a word type by its unique name, or
// apperr.ErrNotFound. Unlike GetOrCreateWordType it never inserts.
func (r *WordRepository) GetWordTypeByName(ctx context.Context, name string) (*models.WordType, error) {
	wt, err := r.getWordType(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("words.GetWordTypeByName", apperr.ErrNotFound, fmt.Sprintf("word type %q", name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word type: %w", err)
	}
	return wt, nil
}

func (r *WordRepository) getWordType(ctx context.Context, name string) (*models.WordType, error) {
	e := ext(ctx)
	var wt models.WordType
	query := e.Rebind("SELECT id, name FROM word_types WHERE name = ?")
	if err := sqlx.GetContext(ctx, e, &wt, query, name); err != nil {
		return nil, err
	}
	return &wt, nil
}

// CreateParams describes a catalog word to insert. Example fields are
// optional; NonParsedUserID marks a manually entered word against a user.
type CreateParams struct {
	Word               string
	WordTypeID         int64
	English            string
	Level              string
	Example            string
	ExampleTranslation string
	NonParsedUserID    int64
}

// Create inserts a new catalog word together with its optional example and
// non-parsed marker in one transaction, joining the context's transaction
// when one is active. A concurrent insert of the same (word, word_type_id)
// degrades to re-fetching the winner, reported via
// apperr.ErrDuplicateCatalogWord so the caller can use the existing row.
func (r *WordRepository) Create(ctx context.Context, p CreateParams) (*models.Word, error) {
	if tx, ok := txFromContext(ctx); ok {
		return r.create(ctx, tx, p)
	}

	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	word, err := r.create(ctx, tx, p)
	if err != nil {
		tx.Rollback()
		// Unique-constraint race: the natural key already won elsewhere.
		if existing, refetchErr := r.GetByTextAndType(ctx, p.Word, p.WordTypeID); refetchErr == nil {
			return existing, apperr.E("words.Create", apperr.ErrDuplicateCatalogWord, fmt.Sprintf("word %q", p.Word))
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return word, nil
}

func (r *WordRepository) create(ctx context.Context, e sqlx.ExtContext, p CreateParams) (*models.Word, error) {
	wordID, err := insertGetID(ctx, e,
		"INSERT INTO words (word, word_type_id, english, level) VALUES (?, ?, ?, ?)",
		p.Word, p.WordTypeID, p.English, p.Level,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create word: %w", err)
	}

	if p.Example != "" {
		_, err = e.ExecContext(ctx,
			e.Rebind("INSERT INTO words_examples (word_id, example, translation) VALUES (?, ?, ?)"),
			wordID, p.Example, p.ExampleTranslation,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create word example: %w", err)
		}
	}

	if p.NonParsedUserID != 0 {
		_, err = e.ExecContext(ctx,
			e.Rebind("INSERT INTO non_parsed_words (word_id, user_id) VALUES (?, ?)"),
			wordID, p.NonParsedUserID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to mark non-parsed word: %w", err)
		}
	}

	return &models.Word{
		ID:         wordID,
		Word:       p.Word,
		WordTypeID: p.WordTypeID,
		English:    p.English,
		Level:      p.Level,
	}, nil
}

// GetExample returns the canonical example of a word, or nil when none exists.
func (r *WordRepository) GetExample(ctx context.Context, wordID int64) (*models.WordExample, error) {
	e := ext(ctx)
	var ex models.WordExample
	query := e.Rebind("SELECT id, word_id, example, COALESCE(translation, '') AS translation FROM words_examples WHERE word_id = ?")
	err := sqlx.GetContext(ctx, e, &ex, query, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word example: %w", err)
	}
	return &ex, nil
}

// GetWordTypeByID returns a word type by ID.
func (r *WordRepository) GetWordTypeByID(ctx context.Context, id int64) (*models.WordType, error) {
	e := ext(ctx)
	var wt models.WordType
	query := e.Rebind("SELECT id, name FROM word_types WHERE id = ?")
	err := sqlx.GetContext(ctx, e, &wt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("words.GetWordTypeByID", apperr.ErrNotFound, fmt.Sprintf("word type id=%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get word type: %w", err)
	}
	return &wt, nil
}

// CountReferences returns how many user words across all users reference the
// catalog word.
func (r *WordRepository) CountReferences(ctx context.Context, wordID int64) (int, error) {
	e := ext(ctx)
	var count int
	query := e.Rebind("SELECT COUNT(*) FROM users_words WHERE word_id = ?")
	if err := sqlx.GetContext(ctx, e, &count, query, wordID); err != nil {
		return 0, fmt.Errorf("failed to count word references: %w", err)
	}
	return count, nil
}

// DeleteIfOrphaned removes the catalog word when no user word references it.
// The example and non-parsed rows go with it by cascade. Returns whether the
// word was deleted.
func (r *WordRepository) DeleteIfOrphaned(ctx context.Context, wordID int64) (bool, error) {
	e := ext(ctx)
	query := e.Rebind(`
		DELETE FROM words
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM users_words WHERE word_id = ?)
	`)
	res, err := e.ExecContext(ctx, query, wordID, wordID)
	if err != nil {
		return false, fmt.Errorf("failed to delete orphaned word: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteOrphans removes every catalog word with no referencing user word.
// Used by the optional sweep job, never by the request path.
func (r *WordRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	res, err := ext(ctx).ExecContext(ctx, `
		DELETE FROM words
		WHERE NOT EXISTS (SELECT 1 FROM users_words WHERE users_words.word_id = words.id)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned words: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// GetAll returns the full catalog, ordered by word.
func (r *WordRepository) GetAll(ctx context.Context) ([]models.Word, error) {
	var words []models.Word
	err := sqlx.SelectContext(ctx, ext(ctx), &words, "SELECT id, word, word_type_id, english, level FROM words ORDER BY word")
	if err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}
	return words, nil
}

// GetWordUsers returns usernames of all users studying the catalog word.
func (r *WordRepository) GetWordUsers(ctx context.Context, wordID int64) ([]string, error) {
	e := ext(ctx)
	var usernames []string
	query := e.Rebind(`
		SELECT u.username FROM users u
		JOIN users_words uw ON uw.user_id = u.id
		WHERE uw.word_id = ?
		ORDER BY u.username
	`)
	if err := sqlx.SelectContext(ctx, e, &usernames, query, wordID); err != nil {
		return nil, fmt.Errorf("failed to get word users: %w", err)
	}
	return usernames, nil
}

// Delete removes a catalog word regardless of references. Admin-only path.
func (r *WordRepository) Delete(ctx context.Context, wordID int64) error {
	e := ext(ctx)
	res, err := e.ExecContext(ctx, e.Rebind("DELETE FROM words WHERE id = ?"), wordID)
	if err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.E("words.Delete", apperr.ErrNotFound, fmt.Sprintf("word id=%d", wordID))
	}
	return nil
}
