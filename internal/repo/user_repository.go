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

// UserRepository maintains the durable presence flag on user documents.
type UserRepository interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string, lastSeen time.Time) error
}

type userRepository struct {
	users  *db.Repository[model.User]
	logger *zap.Logger
}

func NewUserRepository(users *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		users:  users,
		logger: logger,
	}
}

func (r *userRepository) SetOnline(ctx context.Context, userID string) error {
	return r.setPresence(ctx, userID, bson.M{"online_status": true})
}

func (r *userRepository) SetOffline(ctx context.Context, userID string, lastSeen time.Time) error {
	return r.setPresence(ctx, userID, bson.M{
		"online_status": false,
		"last_seen":     lastSeen,
	})
}

func (r *userRepository) setPresence(ctx context.Context, userID string, fields bson.M) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if _, err := r.users.SetByID(ctx, userID, fields); err != nil {
		r.logger.Error("failed to update user presence", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to update user presence: %w", err)
	}
	return nil
}
