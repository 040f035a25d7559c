package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/pkg/models"
)

// UserWordRepository handles database operations for users' personal
// vocabulary entries and their per-user overrides. Every statement runs on
// the transaction carried by the context when one is active, so composed
// mutations in the vocab layer commit as a unit.
type UserWordRepository struct{}

// NewUserWordRepository creates a new repository instance
func NewUserWordRepository() *UserWordRepository {
	return &UserWordRepository{}
}

// UserWordRow is a user word joined with its catalog word and overrides.
// Override columns are NULL when no override row exists.
type UserWordRow struct {
	ID        int64      `db:"id"`
	UserID    int64      `db:"user_id"`
	WordID    int64      `db:"word_id"`
	Fails     int        `db:"fails"`
	Success   int        `db:"success"`
	LastShown *time.Time `db:"last_shown"`

	Word     string `db:"word"`
	WordType string `db:"word_type"`
	English  string `db:"english"`
	Level    string `db:"level"`

	CatalogExample             sql.NullString `db:"catalog_example"`
	CatalogExampleTranslation  sql.NullString `db:"catalog_example_translation"`
	OverrideTranslation        sql.NullString `db:"override_translation"`
	OverrideExample            sql.NullString `db:"override_example"`
	OverrideExampleTranslation sql.NullString `db:"override_example_translation"`
	OverrideLevel              sql.NullString `db:"override_level"`
}

const userWordSelect = `
	SELECT uw.id, uw.user_id, uw.word_id, uw.fails, uw.success, uw.last_shown,
		w.word, wt.name AS word_type, w.english, w.level,
		we.example AS catalog_example, we.translation AS catalog_example_translation,
		uwt.translation AS override_translation,
		uwe.example AS override_example, uwe.translation AS override_example_translation,
		uwl.level AS override_level
	FROM users_words uw
	JOIN words w ON w.id = uw.word_id
	JOIN word_types wt ON wt.id = w.word_type_id
	LEFT JOIN words_examples we ON we.word_id = w.id
	LEFT JOIN users_words_translations uwt ON uwt.user_word_id = uw.id
	LEFT JOIN users_words_examples uwe ON uwe.user_word_id = uw.id
	LEFT JOIN users_words_levels uwl ON uwl.user_word_id = uw.id
`

// sortColumns whitelists the recognized sort keys for ListByUser. Anything
// else falls back to id ordering.
var sortColumns = map[string]string{
	"id":         "uw.id",
	"word":       "w.word",
	"level":      "w.level",
	"fails":      "uw.fails",
	"success":    "uw.success",
	"last_shown": "uw.last_shown",
}

// Create inserts a user word with zeroed counters and no last_shown.
func (r *UserWordRepository) Create(ctx context.Context, userID, wordID int64) (*models.UserWord, error) {
	id, err := insertGetID(ctx, ext(ctx),
		"INSERT INTO users_words (word_id, user_id, fails, success) VALUES (?, ?, 0, 0)",
		wordID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user word: %w", err)
	}
	return &models.UserWord{ID: id, WordID: wordID, UserID: userID}, nil
}

// GetByID returns a user word by ID.
func (r *UserWordRepository) GetByID(ctx context.Context, id int64) (*models.UserWord, error) {
	e := ext(ctx)
	var uw models.UserWord
	query := e.Rebind("SELECT id, word_id, user_id, fails, success, last_shown FROM users_words WHERE id = ?")
	err := sqlx.GetContext(ctx, e, &uw, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("userwords.GetByID", apperr.ErrNotFound, fmt.Sprintf("user word id=%d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user word: %w", err)
	}
	return &uw, nil
}

// FindByUserAndKey looks for a user word of the given user whose catalog word
// matches the (text, word type) natural key. Returns nil when absent.
func (r *UserWordRepository) FindByUserAndKey(ctx context.Context, userID int64, text string, wordTypeID int64) (*models.UserWord, error) {
	e := ext(ctx)
	var uw models.UserWord
	query := e.Rebind(`
		SELECT uw.id, uw.word_id, uw.user_id, uw.fails, uw.success, uw.last_shown
		FROM users_words uw
		JOIN words w ON w.id = uw.word_id
		WHERE uw.user_id = ? AND w.word = ? AND w.word_type_id = ?
	`)
	err := sqlx.GetContext(ctx, e, &uw, query, userID, text, wordTypeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user word by key: %w", err)
	}
	return &uw, nil
}

// Delete removes a user word. Overrides and topic links cascade. The catalog
// word is left alone here; see DeleteIfOrphaned for the word-switch path.
func (r *UserWordRepository) Delete(ctx context.Context, id int64) error {
	e := ext(ctx)
	res, err := e.ExecContext(ctx, e.Rebind("DELETE FROM users_words WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete user word: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.E("userwords.Delete", apperr.ErrNotFound, fmt.Sprintf("user word id=%d", id))
	}
	return nil
}

// Repoint switches a user word to a different catalog word.
func (r *UserWordRepository) Repoint(ctx context.Context, id, newWordID int64) error {
	e := ext(ctx)
	query := e.Rebind("UPDATE users_words SET word_id = ? WHERE id = ?")
	if _, err := e.ExecContext(ctx, query, newWordID, id); err != nil {
		return fmt.Errorf("failed to repoint user word: %w", err)
	}
	return nil
}

// UpsertTranslation creates or replaces the per-user translation override.
func (r *UserWordRepository) UpsertTranslation(ctx context.Context, userWordID int64, translation string) error {
	return r.upsertOverride(ctx, "users_words_translations",
		"UPDATE users_words_translations SET translation = ? WHERE user_word_id = ?",
		"INSERT INTO users_words_translations (user_word_id, translation) VALUES (?, ?)",
		userWordID, translation)
}

// UpsertLevel creates or replaces the per-user level override.
func (r *UserWordRepository) UpsertLevel(ctx context.Context, userWordID int64, level string) error {
	return r.upsertOverride(ctx, "users_words_levels",
		"UPDATE users_words_levels SET level = ? WHERE user_word_id = ?",
		"INSERT INTO users_words_levels (user_word_id, level) VALUES (?, ?)",
		userWordID, level)
}

func (r *UserWordRepository) upsertOverride(ctx context.Context, table, updateQuery, insertQuery string, userWordID int64, value string) error {
	e := ext(ctx)
	res, err := e.ExecContext(ctx, e.Rebind(updateQuery), value, userWordID)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	if _, err := e.ExecContext(ctx, e.Rebind(insertQuery), userWordID, value); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// UpsertExample creates or replaces the per-user example override.
func (r *UserWordRepository) UpsertExample(ctx context.Context, userWordID int64, example, translation string) error {
	e := ext(ctx)
	res, err := e.ExecContext(ctx,
		e.Rebind("UPDATE users_words_examples SET example = ?, translation = ? WHERE user_word_id = ?"),
		example, translation, userWordID)
	if err != nil {
		return fmt.Errorf("failed to update user word example: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}
	_, err = e.ExecContext(ctx,
		e.Rebind("INSERT INTO users_words_examples (user_word_id, example, translation) VALUES (?, ?, ?)"),
		userWordID, example, translation)
	if err != nil {
		return fmt.Errorf("failed to insert user word example: %w", err)
	}
	return nil
}

// AttachTopic links a user word to a topic. Re-attaching is a no-op.
func (r *UserWordRepository) AttachTopic(ctx context.Context, userWordID, topicID int64) error {
	e := ext(ctx)
	var count int
	check := e.Rebind("SELECT COUNT(*) FROM users_words_topics WHERE user_word_id = ? AND topic_id = ?")
	if err := sqlx.GetContext(ctx, e, &count, check, userWordID, topicID); err != nil {
		return fmt.Errorf("failed to check topic link: %w", err)
	}
	if count > 0 {
		return nil
	}
	insert := e.Rebind("INSERT INTO users_words_topics (user_word_id, topic_id) VALUES (?, ?)")
	if _, err := e.ExecContext(ctx, insert, userWordID, topicID); err != nil {
		// Concurrent attach of the same pair; the UNIQUE constraint makes
		// the second insert lose, which is the no-op we want.
		if err := sqlx.GetContext(ctx, e, &count, check, userWordID, topicID); err == nil && count > 0 {
			return nil
		}
		return fmt.Errorf("failed to attach topic: %w", err)
	}
	return nil
}

// DetachTopic removes a topic link from a user word.
func (r *UserWordRepository) DetachTopic(ctx context.Context, userWordID, topicID int64) error {
	e := ext(ctx)
	query := e.Rebind("DELETE FROM users_words_topics WHERE user_word_id = ? AND topic_id = ?")
	if _, err := e.ExecContext(ctx, query, userWordID, topicID); err != nil {
		return fmt.Errorf("failed to detach topic: %w", err)
	}
	return nil
}

// GetTopicNames returns the topic names linked to a user word.
func (r *UserWordRepository) GetTopicNames(ctx context.Context, userWordID int64) ([]string, error) {
	e := ext(ctx)
	var names []string
	query := e.Rebind(`
		SELECT t.name FROM topics t
		JOIN users_words_topics uwt ON uwt.topic_id = t.id
		WHERE uwt.user_word_id = ?
		ORDER BY t.name
	`)
	if err := sqlx.SelectContext(ctx, e, &names, query, userWordID); err != nil {
		return nil, fmt.Errorf("failed to get topic names: %w", err)
	}
	return names, nil
}

// GetRow returns the composed row for one user word.
func (r *UserWordRepository) GetRow(ctx context.Context, userWordID int64) (*UserWordRow, error) {
	e := ext(ctx)
	var row UserWordRow
	query := e.Rebind(userWordSelect + " WHERE uw.id = ?")
	err := sqlx.GetContext(ctx, e, &row, query, userWordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("userwords.GetRow", apperr.ErrNotFound, fmt.Sprintf("user word id=%d", userWordID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user word row: %w", err)
	}
	return &row, nil
}

// ListByUser returns one page of a user's composed rows. sortKey must be one
// of the whitelisted keys; unknown keys sort by id.
func (r *UserWordRepository) ListByUser(ctx context.Context, userID int64, limit, offset int, sortKey string) ([]UserWordRow, error) {
	column, ok := sortColumns[sortKey]
	if !ok {
		column = sortColumns["id"]
	}
	e := ext(ctx)
	query := e.Rebind(userWordSelect + " WHERE uw.user_id = ? ORDER BY " + column + " LIMIT ? OFFSET ?")
	var rows []UserWordRow
	if err := sqlx.SelectContext(ctx, e, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list user words: %w", err)
	}
	return rows, nil
}

// Cards returns up to limit composed rows for review, optionally filtered to
// one topic and optionally shuffled by the database.
func (r *UserWordRepository) Cards(ctx context.Context, userID int64, topicID *int64, limit int, random bool) ([]UserWordRow, error) {
	query := userWordSelect
	args := []interface{}{}
	if topicID != nil {
		query += " JOIN users_words_topics link ON link.user_word_id = uw.id AND link.topic_id = ?"
		args = append(args, *topicID)
	}
	query += " WHERE uw.user_id = ?"
	args = append(args, userID)
	if random {
		query += " ORDER BY RANDOM()"
	} else {
		query += " ORDER BY uw.last_shown ASC"
	}
	query += " LIMIT ?"
	args = append(args, limit)

	e := ext(ctx)
	var rows []UserWordRow
	if err := sqlx.SelectContext(ctx, e, &rows, e.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	return rows, nil
}

// RecordReview increments exactly one counter and stamps last_shown. The
// increment happens inside the UPDATE so concurrent reviews never lose one.
func (r *UserWordRepository) RecordReview(ctx context.Context, userWordID int64, shownAt time.Time, success bool) error {
	column := "fails"
	if success {
		column = "success"
	}
	e := ext(ctx)
	query := e.Rebind("UPDATE users_words SET " + column + " = " + column + " + 1, last_shown = ? WHERE id = ?")
	res, err := e.ExecContext(ctx, query, shownAt, userWordID)
	if err != nil {
		return fmt.Errorf("failed to record review: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.E("userwords.RecordReview", apperr.ErrNotFound, fmt.Sprintf("user word id=%d", userWordID))
	}
	return nil
}

// ListByUserAll returns every composed row of a user. Admin listing path.
func (r *UserWordRepository) ListByUserAll(ctx context.Context, userID int64) ([]UserWordRow, error) {
	e := ext(ctx)
	query := e.Rebind(userWordSelect + " WHERE uw.user_id = ? ORDER BY uw.id")
	var rows []UserWordRow
	if err := sqlx.SelectContext(ctx, e, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user words: %w", err)
	}
	return rows, nil
}
