package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/db"
	"github.com/AdityaDas31/Whisp-Backend/internal/model"
)

// StoryRepository is the durable side of the story-expiry sweep.
type StoryRepository interface {
	FindExpired(ctx context.Context, now time.Time) ([]model.Story, error)
	Delete(ctx context.Context, storyID string) error
}

type storyRepository struct {
	stories *db.Repository[model.Story]
	logger  *zap.Logger
}

func NewStoryRepository(stories *db.Repository[model.Story], logger *zap.Logger) StoryRepository {
	return &storyRepository{
		stories: stories,
		logger:  logger,
	}
}

func (r *storyRepository) FindExpired(ctx context.Context, now time.Time) ([]model.Story, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter, err := db.NewFilter().Lte("expires_at", now).Build()
	if err != nil {
		return nil, err
	}
	sort := bson.D{{Key: "expires_at", Value: 1}}

	stories, err := r.stories.FindAllSorted(ctx, filter, sort)
	if err != nil {
		r.logger.Error("failed to query expired stories", zap.Error(err))
		return nil, fmt.Errorf("failed to query expired stories: %w", err)
	}
	return stories, nil
}

func (r *storyRepository) Delete(ctx context.Context, storyID string) error {
	if storyID == "" {
		return ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if _, err := r.stories.DeleteByID(ctx, storyID); err != nil {
		r.logger.Error("failed to delete story", zap.String("story_id", storyID), zap.Error(err))
		return fmt.Errorf("failed to delete story: %w", err)
	}
	return nil
}
