package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/db"
	"github.com/AdityaDas31/Whisp-Backend/internal/model"
)

type ChatRepository interface {
	GetChat(ctx context.Context, chatID string) (*model.Chat, error)
}

type chatRepository struct {
	chats  *db.Repository[model.Chat]
	logger *zap.Logger
}

func NewChatRepository(chats *db.Repository[model.Chat], logger *zap.Logger) ChatRepository {
	return &chatRepository{
		chats:  chats,
		logger: logger,
	}
}

// GetChat fetches a chat document by its hex id.
func (r *chatRepository) GetChat(ctx context.Context, chatID string) (*model.Chat, error) {
	if chatID == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	chat, err := r.chats.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("chat not found", zap.String("chat_id", chatID))
			return nil, ErrNotFound
		}
		r.logger.Error("failed to fetch chat", zap.String("chat_id", chatID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch chat: %w", err)
	}

	return chat, nil
}
