package cards

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wortschatz/internal/apperr"
	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
	"github.com/example/wortschatz/internal/vocab"
	"github.com/example/wortschatz/pkg/models"
)

// Outcome of a single review.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fails"
)

// ParseOutcome validates a caller-supplied outcome string.
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomeSuccess, OutcomeFail:
		return Outcome(s), nil
	}
	return "", fmt.Errorf("invalid outcome %q, want %q or %q", s, OutcomeSuccess, OutcomeFail)
}

// Tracker maintains the per-card review counters and selects cards for
// practice sessions. No scheduling beyond the raw counters.
type Tracker struct {
	userWords *database.UserWordRepository
	topics    *database.TopicRepository
	vocab     *vocab.Manager
	log       *logger.Logger
}

// NewTracker wires the card tracker.
func NewTracker(userWords *database.UserWordRepository, topics *database.TopicRepository, vocabManager *vocab.Manager, log *logger.Logger) *Tracker {
	return &Tracker{
		userWords: userWords,
		topics:    topics,
		vocab:     vocabManager,
		log:       log.With("component", "cards"),
	}
}

// UpdateCard records one review: exactly one counter goes up by one and
// last_shown takes the supplied timestamp.
func (t *Tracker) UpdateCard(ctx context.Context, userID, userWordID int64, reviewedAt time.Time, outcome Outcome) (*models.UserWordView, error) {
	const op = "cards.UpdateCard"

	userWord, err := t.userWords.GetByID(ctx, userWordID)
	if err != nil {
		return nil, err
	}
	if userWord.UserID != userID {
		return nil, apperr.E(op, apperr.ErrForbidden,
			fmt.Sprintf("user id=%d doesn't have a user word with id=%d", userID, userWordID))
	}

	if err := t.userWords.RecordReview(ctx, userWordID, reviewedAt, outcome == OutcomeSuccess); err != nil {
		return nil, err
	}
	return t.vocab.View(ctx, userWordID)
}

// GetCards returns up to limit of the user's cards, optionally filtered to
// one topic and optionally shuffled. An empty result is reported as
// apperr.ErrNoWordsFound so callers can tell "topic has zero words" apart
// from a silent empty page; a missing topic is apperr.ErrNotFound.
func (t *Tracker) GetCards(ctx context.Context, userID int64, topicID *int64, limit int, random bool) ([]models.UserWordView, error) {
	const op = "cards.GetCards"

	if limit <= 0 {
		limit = 25
	}
	if topicID != nil {
		if _, err := t.topics.GetByID(ctx, *topicID); err != nil {
			return nil, err
		}
	}

	rows, err := t.userWords.Cards(ctx, userID, topicID, limit, random)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.E(op, apperr.ErrNoWordsFound, fmt.Sprintf("user id=%d", userID))
	}

	views := make([]models.UserWordView, 0, len(rows))
	for i := range rows {
		topics, err := t.userWords.GetTopicNames(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		views = append(views, *vocab.ViewFromRow(&rows[i], topics))
	}
	return views, nil
}
