package vocab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
	"github.com/example/wortschatz/internal/resolver"
	"github.com/example/wortschatz/pkg/models"
)

// Manager orchestrates a user's personal vocabulary: it delegates catalog
// resolution to the resolver, then attaches the user word, its overrides and
// topic links, and composes the read model. Mutations that touch several rows
// run inside one transaction so a failed step leaves nothing behind.
type Manager struct {
	resolver  *resolver.Resolver
	words     *database.WordRepository
	userWords *database.UserWordRepository
	topics    *database.TopicRepository
	log       *logger.Logger
}

// NewManager wires the lifecycle manager.
func NewManager(res *resolver.Resolver, words *database.WordRepository, userWords *database.UserWordRepository, topics *database.TopicRepository, log *logger.Logger) *Manager {
	return &Manager{
		resolver:  res,
		words:     words,
		userWords: userWords,
		topics:    topics,
		log:       log.With("component", "vocab"),
	}
}

// AddInput describes a word the user wants to study. Everything besides Word
// is optional; Translation, Level and WordType together allow adding a word
// the dictionary does not know.
type AddInput struct {
	Word               string
	Translation        string
	Level              string
	WordType           string
	Example            string
	ExampleTranslation string
	Topics             []string
}

// UpdateInput is a patch: nil fields stay untouched. Topics are additive.
type UpdateInput struct {
	Word               *string
	WordType           *string
	English            *string
	Level              *string
	Example            *string
	ExampleTranslation *string
	Topics             []string
}

// AddUserWord resolves the raw word against the catalog and creates the
// user's study record with zeroed counters and a never-shown timestamp.
// Fails with apperr.ErrDuplicateUserWord when the user already studies the
// resolved (text, type) pair. The record, its overrides and its topic links
// commit together.
func (m *Manager) AddUserWord(ctx context.Context, userID int64, in AddInput) (*models.UserWordView, error) {
	const op = "vocab.AddUserWord"

	word, err := m.resolver.ResolveOrCreate(ctx, userID, in.Word, resolver.CallerFields{
		Translation:        in.Translation,
		Level:              in.Level,
		WordType:           in.WordType,
		Example:            in.Example,
		ExampleTranslation: in.ExampleTranslation,
	})
	if err != nil {
		return nil, err
	}

	topicNames := in.Topics
	if len(topicNames) == 0 {
		topicNames = []string{models.DefaultTopicName}
	}

	var userWordID int64
	err = database.Transact(ctx, func(ctx context.Context) error {
		// The dedup key is the resolved word, not the raw input: "Tisch" and
		// "der Tisch" land on the same catalog row.
		existing, err := m.userWords.FindByUserAndKey(ctx, userID, word.Word, word.WordTypeID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.E(op, apperr.ErrDuplicateUserWord, fmt.Sprintf("word %q", word.Word))
		}

		userWord, err := m.userWords.Create(ctx, userID, word.ID)
		if err != nil {
			return err
		}
		userWordID = userWord.ID

		if err := m.applyAddOverrides(ctx, userWord.ID, word, in); err != nil {
			return err
		}
		topicIDs, err := m.topicIDs(ctx, topicNames)
		if err != nil {
			return err
		}
		return m.attachTopicIDs(ctx, userWord.ID, topicIDs)
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("user word added", "user_id", userID, "word", word.Word)
	return m.View(ctx, userWordID)
}

// applyAddOverrides creates override rows only where the caller's values
// differ from the catalog word; otherwise the view composes catalog data at
// read time.
func (m *Manager) applyAddOverrides(ctx context.Context, userWordID int64, word *models.Word, in AddInput) error {
	if in.Translation != "" && in.Translation != word.English {
		if err := m.userWords.UpsertTranslation(ctx, userWordID, in.Translation); err != nil {
			return err
		}
	}
	if in.Example != "" {
		catalogExample, err := m.words.GetExample(ctx, word.ID)
		if err != nil {
			return err
		}
		if catalogExample == nil || catalogExample.Example != in.Example {
			if err := m.userWords.UpsertExample(ctx, userWordID, in.Example, in.ExampleTranslation); err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateUserWord applies a patch to a user word. When the patch changes the
// word identity (text or type) the record is re-pointed: to an existing
// catalog word when one matches the target key, otherwise to a freshly
// resolved one. An identity change that cannot be resolved is a hard failure;
// nothing is modified. The old catalog word is garbage-collected when the
// switch leaves it unreferenced. Topics are only ever added here, never
// removed. The re-point, the overrides and the topic links commit together.
func (m *Manager) UpdateUserWord(ctx context.Context, userID, userWordID int64, in UpdateInput) (*models.UserWordView, error) {
	const op = "vocab.UpdateUserWord"

	userWord, err := m.userWords.GetByID(ctx, userWordID)
	if err != nil {
		return nil, err
	}
	if userWord.UserID != userID {
		return nil, apperr.E(op, apperr.ErrForbidden, "user can update only his words")
	}

	current, err := m.words.GetByID(ctx, userWord.WordID)
	if err != nil {
		return nil, err
	}
	currentType, err := m.words.GetWordTypeByID(ctx, current.WordTypeID)
	if err != nil {
		return nil, err
	}

	targetText := current.Word
	if in.Word != nil {
		targetText = strings.TrimSpace(*in.Word)
	}
	targetType := currentType.Name
	if in.WordType != nil {
		targetType = *in.WordType
	}

	baseline := current
	var resolved *models.Word
	if targetText != current.Word || !strings.EqualFold(targetType, currentType.Name) {
		resolved, err = m.resolveTarget(ctx, userID, targetText, targetType, in)
		if err != nil {
			return nil, err
		}
		if resolved.ID == current.ID {
			// Resolution normalized back to the currently linked word.
			resolved = nil
		} else {
			baseline = resolved
		}
	}

	err = database.Transact(ctx, func(ctx context.Context) error {
		if resolved != nil {
			other, err := m.userWords.FindByUserAndKey(ctx, userID, resolved.Word, resolved.WordTypeID)
			if err != nil {
				return err
			}
			if other != nil && other.ID != userWord.ID {
				return apperr.E(op, apperr.ErrDuplicateUserWord, fmt.Sprintf("word %q", resolved.Word))
			}
			if err := m.userWords.Repoint(ctx, userWord.ID, resolved.ID); err != nil {
				return err
			}
			deleted, err := m.words.DeleteIfOrphaned(ctx, current.ID)
			if err != nil {
				return err
			}
			if deleted {
				m.log.Info("orphaned catalog word collected", "word", current.Word, "word_id", current.ID)
			}
		}

		if err := m.applyPatchOverrides(ctx, userWordID, baseline, in); err != nil {
			return err
		}
		topicIDs, err := m.topicIDs(ctx, in.Topics)
		if err != nil {
			return err
		}
		return m.attachTopicIDs(ctx, userWordID, topicIDs)
	})
	if err != nil {
		return nil, err
	}

	return m.View(ctx, userWordID)
}

// resolveTarget finds the catalog word a re-pointed user word should link to.
// An existing catalog row matching the target (text, type) key is re-used as
// is, without consulting the dictionary; only an unknown key goes through the
// resolver. The caller's word type constrains resolution only when the patch
// actually carries one, so a text-only switch adopts the dictionary's part of
// speech.
func (m *Manager) resolveTarget(ctx context.Context, userID int64, targetText, targetType string, in UpdateInput) (*models.Word, error) {
	existing, err := m.findCatalogWord(ctx, targetText, targetType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	fields := resolver.CallerFields{}
	if in.WordType != nil {
		fields.WordType = *in.WordType
	}
	if in.English != nil {
		fields.Translation = *in.English
	}
	if in.Level != nil {
		fields.Level = *in.Level
	}
	if in.Example != nil {
		fields.Example = *in.Example
	}
	if in.ExampleTranslation != nil {
		fields.ExampleTranslation = *in.ExampleTranslation
	}
	return m.resolver.ResolveOrCreate(ctx, userID, targetText, fields)
}

// findCatalogWord returns the catalog word for a (text, type name) key, or
// nil when either the type or the word does not exist yet.
func (m *Manager) findCatalogWord(ctx context.Context, text, typeName string) (*models.Word, error) {
	wordType, err := m.words.GetWordTypeByName(ctx, typeName)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	word, err := m.words.GetByTextAndType(ctx, text, wordType.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return word, nil
}

// applyPatchOverrides implements the override policy against the given
// baseline word: a gloss equal to the catalog one needs no override; a
// supplied level or example always lands in the per-user rows. The shared
// catalog word is never mutated.
func (m *Manager) applyPatchOverrides(ctx context.Context, userWordID int64, baseline *models.Word, in UpdateInput) error {
	if in.English != nil && *in.English != "" && *in.English != baseline.English {
		if err := m.userWords.UpsertTranslation(ctx, userWordID, *in.English); err != nil {
			return err
		}
	}
	if in.Level != nil && *in.Level != "" {
		if err := m.userWords.UpsertLevel(ctx, userWordID, models.CoerceLevel(*in.Level)); err != nil {
			return err
		}
	}
	if in.Example != nil && *in.Example != "" {
		translation := ""
		if in.ExampleTranslation != nil {
			translation = *in.ExampleTranslation
		}
		if err := m.userWords.UpsertExample(ctx, userWordID, *in.Example, translation); err != nil {
			return err
		}
	}
	return nil
}

// RemoveUserWord deletes a user word; overrides and topic links cascade. The
// catalog word is deliberately left in place even when orphaned -- only the
// word-switch path collects catalog words.
func (m *Manager) RemoveUserWord(ctx context.Context, userID, userWordID int64) (*models.UserWordView, error) {
	const op = "vocab.RemoveUserWord"

	userWord, err := m.userWords.GetByID(ctx, userWordID)
	if err != nil {
		return nil, err
	}
	if userWord.UserID != userID {
		return nil, apperr.E(op, apperr.ErrForbidden, "user can remove only his words")
	}

	view, err := m.View(ctx, userWordID)
	if err != nil {
		return nil, err
	}
	if err := m.userWords.Delete(ctx, userWordID); err != nil {
		return nil, err
	}
	m.log.Info("user word removed", "user_id", userID, "word", view.Word)
	return view, nil
}

// GetUserWords returns one page of the user's composed views.
func (m *Manager) GetUserWords(ctx context.Context, userID int64, limit, offset int, sortKey string) ([]models.UserWordView, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := m.userWords.ListByUser(ctx, userID, limit, offset, sortKey)
	if err != nil {
		return nil, err
	}
	return m.viewsFromRows(ctx, rows)
}

// GetAllUserWords returns every composed view of a user. Admin path.
func (m *Manager) GetAllUserWords(ctx context.Context, userID int64) ([]models.UserWordView, error) {
	rows, err := m.userWords.ListByUserAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return m.viewsFromRows(ctx, rows)
}

// View composes the read model for one user word.
func (m *Manager) View(ctx context.Context, userWordID int64) (*models.UserWordView, error) {
	row, err := m.userWords.GetRow(ctx, userWordID)
	if err != nil {
		return nil, err
	}
	topics, err := m.userWords.GetTopicNames(ctx, userWordID)
	if err != nil {
		return nil, err
	}
	return ViewFromRow(row, topics), nil
}

func (m *Manager) viewsFromRows(ctx context.Context, rows []database.UserWordRow) ([]models.UserWordView, error) {
	views := make([]models.UserWordView, 0, len(rows))
	for i := range rows {
		topics, err := m.userWords.GetTopicNames(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		views = append(views, *ViewFromRow(&rows[i], topics))
	}
	return views, nil
}

// topicIDs resolves topic names to IDs, creating missing topics on the way.
func (m *Manager) topicIDs(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		topic, err := m.topics.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, topic.ID)
	}
	return ids, nil
}

func (m *Manager) attachTopicIDs(ctx context.Context, userWordID int64, ids []int64) error {
	for _, id := range ids {
		if err := m.userWords.AttachTopic(ctx, userWordID, id); err != nil {
			return err
		}
	}
	return nil
}
