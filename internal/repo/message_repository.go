package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/db"
	"github.com/AdityaDas31/Whisp-Backend/internal/model"
)

// MessageRepository owns the durable side of the per-message delivery
// state machine. Every transition is a single conditional update: the
// filter encodes the legal source state, so concurrent acknowledgements
// from different recipients can never lose each other's writes, and an
// ack from a user outside the recipient set simply matches nothing.
type MessageRepository interface {
	GetMessage(ctx context.Context, messageID string) (*model.Message, error)

	// MarkDispatched resolves the recipient set exactly once. A repeated
	// sendMessage for the same id reports false and changes nothing.
	MarkDispatched(ctx context.Context, messageID string, recipients []string) (bool, error)

	// MarkDelivered moves one recipient Pending -> Delivered. Reports
	// whether a transition actually happened.
	MarkDelivered(ctx context.Context, messageID, userID string) (bool, error)

	// MarkSeen moves one recipient to Seen from Pending or Delivered.
	MarkSeen(ctx context.Context, messageID, userID string) (bool, error)

	// PendingFor returns every message still pending for the user,
	// oldest first, for reconnect replay.
	PendingFor(ctx context.Context, userID string) ([]model.Message, error)

	// UnseenInChat returns messages in the chat the user has not seen
	// and did not send.
	UnseenInChat(ctx context.Context, chatID, userID string) ([]model.Message, error)

	// StripPayload removes the content-bearing fields once every
	// recipient confirmed durable receipt. Reports whether this call
	// did the stripping.
	StripPayload(ctx context.Context, messageID string) (bool, error)
}

type messageRepository struct {
	messages *db.Repository[model.Message]
	logger   *zap.Logger
}

func NewMessageRepository(messages *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		messages: messages,
		logger:   logger,
	}
}

func (m *messageRepository) GetMessage(ctx context.Context, messageID string) (*model.Message, error) {
	if messageID == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.messages.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		m.logger.Error("failed to fetch message", zap.String("message_id", messageID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}

func (m *messageRepository) MarkDispatched(ctx context.Context, messageID string, recipients []string) (bool, error) {
	if messageID == "" {
		return false, ErrInvalidID
	}

	filter, err := db.NewFilter().
		ObjectID("_id", messageID).
		Eq("dispatched", false).
		Build()
	if err != nil {
		m.logger.Debug("malformed message id", zap.String("message_id", messageID), zap.Error(err))
		return false, ErrInvalidID
	}
	update := db.NewUpdate().
		Set("receivers", recipients).
		Set("dispatched", true).
		Build()

	return m.updateWithRetry(ctx, "mark dispatched", messageID, filter, update)
}

func (m *messageRepository) MarkDelivered(ctx context.Context, messageID, userID string) (bool, error) {
	if messageID == "" {
		return false, ErrInvalidID
	}
	if userID == "" {
		return false, ErrInvalidUserID
	}

	// Legal only while the user is still pending; anything else matches
	// nothing and the ack is a no-op.
	filter, err := db.NewFilter().
		ObjectID("_id", messageID).
		Has("receivers", userID).
		Build()
	if err != nil {
		m.logger.Debug("malformed message id", zap.String("message_id", messageID), zap.Error(err))
		return false, ErrInvalidID
	}
	update := db.NewUpdate().
		AddToSet("delivered_to", userID).
		Pull("receivers", userID).
		Build()

	return m.updateWithRetry(ctx, "mark delivered", messageID, filter, update)
}

func (m *messageRepository) MarkSeen(ctx context.Context, messageID, userID string) (bool, error) {
	if messageID == "" {
		return false, ErrInvalidID
	}
	if userID == "" {
		return false, ErrInvalidUserID
	}

	// Legal from Pending or Delivered; a user already in seen_by, or one
	// who was never a recipient, matches nothing. Pulling from both
	// source sets keeps each recipient in exactly one set.
	filter, err := db.NewFilter().
		ObjectID("_id", messageID).
		Lacks("seen_by", userID).
		Or(
			db.NewFilter().Has("receivers", userID),
			db.NewFilter().Has("delivered_to", userID),
		).
		Build()
	if err != nil {
		m.logger.Debug("malformed message id", zap.String("message_id", messageID), zap.Error(err))
		return false, ErrInvalidID
	}
	update := db.NewUpdate().
		AddToSet("seen_by", userID).
		Pull("receivers", userID).
		Pull("delivered_to", userID).
		Build()

	return m.updateWithRetry(ctx, "mark seen", messageID, filter, update)
}

func (m *messageRepository) PendingFor(ctx context.Context, userID string) ([]model.Message, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter, err := db.NewFilter().Has("receivers", userID).Build()
	if err != nil {
		return nil, err
	}
	sort := bson.D{{Key: "created_at", Value: 1}}

	msgs, err := m.messages.FindAllSorted(ctx, filter, sort)
	if err != nil {
		m.logger.Error("failed to query pending messages", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to query pending messages: %w", err)
	}

	m.logger.Debug("pending messages retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(msgs)),
	)
	return msgs, nil
}

func (m *messageRepository) UnseenInChat(ctx context.Context, chatID, userID string) ([]model.Message, error) {
	if chatID == "" {
		return nil, ErrInvalidID
	}
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	// A chat id that fails to parse must reject the whole query: with the
	// chat_id constraint dropped, the filter would span every chat.
	filter, err := db.NewFilter().
		ObjectID("chat_id", chatID).
		Ne("sender_id", userID).
		Lacks("seen_by", userID).
		Build()
	if err != nil {
		m.logger.Debug("malformed chat id", zap.String("chat_id", chatID), zap.Error(err))
		return nil, ErrInvalidID
	}
	sort := bson.D{{Key: "created_at", Value: 1}}

	msgs, err := m.messages.FindAllSorted(ctx, filter, sort)
	if err != nil {
		m.logger.Error("failed to query unseen messages",
			zap.String("chat_id", chatID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to query unseen messages: %w", err)
	}
	return msgs, nil
}

func (m *messageRepository) StripPayload(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, ErrInvalidID
	}

	filter, err := db.NewFilter().
		ObjectID("_id", messageID).
		Eq("payload_stripped", false).
		Build()
	if err != nil {
		m.logger.Debug("malformed message id", zap.String("message_id", messageID), zap.Error(err))
		return false, ErrInvalidID
	}
	update := db.NewUpdate().
		Unset("content", "media", "location", "contact", "poll").
		Set("payload_stripped", true).
		Build()

	stripped, err := m.updateWithRetry(ctx, "strip payload", messageID, filter, update)
	if err != nil {
		return false, err
	}
	if stripped {
		m.logger.Info("message payload stripped", zap.String("message_id", messageID))
	}
	return stripped, nil
}

// updateWithRetry runs one conditional update, retrying transient mongo
// failures. The boolean reports whether the guard matched and the
// document changed.
func (m *messageRepository) updateWithRetry(ctx context.Context, op, messageID string, filter, update bson.M) (bool, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return false, err
			}
			m.logger.Warn("retrying message update",
				zap.String("op", op),
				zap.String("message_id", messageID),
				zap.Int("attempt", attempt+1),
			)
		}

		result, err := m.messages.UpdateOne(ctx, filter, update)
		if err == nil {
			return result.ModifiedCount > 0, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}

	m.logger.Error("message update failed after retries",
		zap.String("op", op),
		zap.String("message_id", messageID),
		zap.Error(lastErr),
	)
	return false, fmt.Errorf("%s failed: %w", op, lastErr)
}
