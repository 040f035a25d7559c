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

// TopicRepository handles database operations for topics
type TopicRepository struct{}

// NewTopicRepository creates a new repository instance
func NewTopicRepository() *TopicRepository {
	return &TopicRepository{}
}

// GetAll returns all topics
func (r *TopicRepository) GetAll(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	err := sqlx.SelectContext(ctx, ext(ctx), &topics, "SELECT id, name, description FROM topics ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return topics, nil
}

// GetByID returns a topic by ID
func (r *TopicRepository) GetByID(ctx context.Context, topicID int64) (*models.Topic, error) {
	e := ext(ctx)
	var topic models.Topic
	query := e.Rebind("SELECT id, name, description FROM topics WHERE id = ?")
	err := sqlx.GetContext(ctx, e, &topic, query, topicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("topics.GetByID", apperr.ErrNotFound, fmt.Sprintf("topic id=%d", topicID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	return &topic, nil
}

// GetByName returns a topic by its unique name
func (r *TopicRepository) GetByName(ctx context.Context, name string) (*models.Topic, error) {
	e := ext(ctx)
	var topic models.Topic
	query := e.Rebind("SELECT id, name, description FROM topics WHERE name = ?")
	err := sqlx.GetContext(ctx, e, &topic, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E("topics.GetByName", apperr.ErrNotFound, fmt.Sprintf("topic %q", name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic by name: %w", err)
	}
	return &topic, nil
}

// GetOrCreate resolves a topic by name, creating it lazily on first use.
// A concurrent first-time insert of the same name degrades to re-fetch.
func (r *TopicRepository) GetOrCreate(ctx context.Context, name string) (*models.Topic, error) {
	topic, err := r.GetByName(ctx, name)
	if err == nil {
		return topic, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	id, err := insertGetID(ctx, ext(ctx), "INSERT INTO topics (name) VALUES (?)", name)
	if err != nil {
		if topic, refetchErr := r.GetByName(ctx, name); refetchErr == nil {
			return topic, nil
		}
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	return &models.Topic{ID: id, Name: name}, nil
}
