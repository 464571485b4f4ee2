package hub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/event"
	"github.com/AdityaDas31/Whisp-Backend/internal/model"
	"github.com/AdityaDas31/Whisp-Backend/internal/push"
	"github.com/AdityaDas31/Whisp-Backend/internal/repo"
)

// MessageHandler drives message delivery: it resolves fan-out targets
// from the presence and room registries, advances the per-recipient
// state machine through the repository's atomic transitions, replays
// pending messages on reconnect, and strips payloads once every
// recipient holds a durable copy.
type MessageHandler struct {
	hub      *Hub
	messages repo.MessageRepository
	chats    repo.ChatRepository
	users    repo.UserRepository
	pusher   push.Sender
}

func NewMessageHandler(
	hub *Hub,
	messages repo.MessageRepository,
	chats repo.ChatRepository,
	users repo.UserRepository,
	pusher push.Sender,
) *MessageHandler {
	return &MessageHandler{
		hub:      hub,
		messages: messages,
		chats:    chats,
		users:    users,
		pusher:   pusher,
	}
}

// HandleEvent processes one inbound protocol event.
func (mh *MessageHandler) HandleEvent(ev event.WsEvent, c *Client) {
	if ev.Event != event.EventRegisterUser && !c.IsRegistered() {
		mh.hub.logger.Debug("event from unregistered connection dropped",
			zap.String("event", ev.Event),
			zap.String("client_id", c.ID),
		)
		return
	}

	switch ev.Event {
	case event.EventRegisterUser:
		mh.handleRegisterUser(ev, c)
	case event.EventJoinRoom:
		mh.handleJoinRoom(ev, c)
	case event.EventLeaveRoom:
		mh.handleLeaveRoom(ev, c)
	case event.EventSendMessage:
		mh.handleSendMessage(ev, c)
	case event.EventMessageAck:
		mh.handleMessageAck(ev, c)
	case event.EventMessageSeen:
		mh.handleMessageSeen(ev, c)
	case event.EventChatSeen:
		mh.handleChatSeen(ev, c)
	case event.EventMessagePersisted:
		mh.handleMessagePersisted(ev, c)
	default:
		mh.hub.logger.Debug("unknown event type", zap.String("event", ev.Event))
	}
}

// -----------------------------------------------------------------
// Registration and Reconnect Replay
// -----------------------------------------------------------------

func (mh *MessageHandler) handleRegisterUser(ev event.WsEvent, c *Client) {
	var payload model.RegisterUserPayload
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			mh.hub.logger.Debug("failed to unmarshal register payload", zap.Error(err))
		}
	}
	if payload.UserID != "" && payload.UserID != c.userID {
		// the handshake identity wins; a mismatched payload is noise
		mh.hub.logger.Warn("register payload does not match credential",
			zap.String("claimed", payload.UserID),
			zap.String("authenticated", c.userID),
		)
	}

	c.setRegistered()
	first := mh.hub.presence.Register(c)

	mh.sendToClient(c, event.EventOnlineUsersList, model.OnlineUsersListEvent{
		Users: mh.hub.presence.OnlineUserIDs(),
	})

	if first {
		if err := mh.users.SetOnline(mh.hub.ctx, c.userID); err != nil {
			mh.hub.logger.Warn("failed to persist online status",
				zap.String("user_id", c.userID), zap.Error(err))
		}
		mh.broadcastExcept(c.userID, event.EventUserOnline, model.UserOnlineEvent{
			UserID: c.userID,
		})
	}

	mh.replayPending(c)

	mh.hub.logger.Info("user registered",
		zap.String("user_id", c.userID),
		zap.String("client_id", c.ID),
		zap.Bool("first_handle", first),
	)
}

// replayPending re-delivers every message still pending for the user,
// oldest first, to this handle. The atomic MarkDelivered decides whether
// the sender hears about it, so flaky reconnects never double-notify.
func (mh *MessageHandler) replayPending(c *Client) {
	ctx := mh.hub.ctx

	pending, err := mh.messages.PendingFor(ctx, c.userID)
	if err != nil {
		mh.hub.logger.Error("failed to load pending messages",
			zap.String("user_id", c.userID), zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	mh.sendToClient(c, event.EventSyncMessages, model.SyncMessagesEvent{Messages: pending})

	for i := range pending {
		msg := &pending[i]
		messageID := msg.ID.Hex()

		mh.sendToClient(c, event.EventMessageNew, msg)

		transitioned, err := mh.messages.MarkDelivered(ctx, messageID, c.userID)
		if err != nil {
			mh.hub.logger.Error("failed to mark replayed message delivered",
				zap.String("message_id", messageID), zap.Error(err))
			continue
		}
		if transitioned {
			mh.notifySender(msg.SenderID, event.EventMessageDelivered, messageID, c.userID)
		}
	}

	mh.hub.logger.Debug("pending messages replayed",
		zap.String("user_id", c.userID),
		zap.Int("count", len(pending)),
	)
}

// handleDisconnect runs when a handle closes after having registered.
// Only the loss of the user's last handle flips them offline.
func (mh *MessageHandler) handleDisconnect(c *Client) {
	last := mh.hub.presence.Unregister(c)
	if !last {
		return
	}

	mh.hub.rooms.PurgeUser(c.userID)
	lastSeen := time.Now()

	go func() {
		if err := mh.users.SetOffline(context.Background(), c.userID, lastSeen); err != nil {
			mh.hub.logger.Warn("failed to persist offline status",
				zap.String("user_id", c.userID), zap.Error(err))
		}

		mh.broadcastExcept(c.userID, event.EventUserOffline, model.UserOfflineEvent{
			UserID:   c.userID,
			LastSeen: lastSeen,
		})
	}()

	mh.hub.logger.Info("user went offline", zap.String("user_id", c.userID))
}

// -----------------------------------------------------------------
// Room Membership
// -----------------------------------------------------------------

func (mh *MessageHandler) handleJoinRoom(ev event.WsEvent, c *Client) {
	var payload model.JoinRoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ChatID == "" {
		mh.logMalformedPayload(ev.Event, c)
		return
	}

	mh.hub.rooms.Join(payload.ChatID, c.userID)
	mh.hub.logger.Debug("user joined room",
		zap.String("user_id", c.userID),
		zap.String("chat_id", payload.ChatID),
	)
}

func (mh *MessageHandler) handleLeaveRoom(ev event.WsEvent, c *Client) {
	var payload model.LeaveRoomPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ChatID == "" {
		mh.logMalformedPayload(ev.Event, c)
		return
	}

	mh.hub.rooms.Leave(payload.ChatID, c.userID)
}

// -----------------------------------------------------------------
// Delivery Dispatch
// -----------------------------------------------------------------

func (mh *MessageHandler) handleSendMessage(ev event.WsEvent, c *Client) {
	var payload model.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		mh.logMalformedPayload(ev.Event, c)
		return
	}

	ctx := mh.hub.ctx

	msg, err := mh.messages.GetMessage(ctx, payload.MessageID)
	if err != nil {
		mh.logLookupFailure("message", payload.MessageID, err)
		return
	}
	if msg.SenderID != c.userID {
		mh.hub.logger.Warn("dispatch attempt by non-sender ignored",
			zap.String("message_id", payload.MessageID),
			zap.String("user_id", c.userID),
		)
		return
	}

	chat, err := mh.chats.GetChat(ctx, msg.ChatID.Hex())
	if err != nil {
		mh.logLookupFailure("chat", msg.ChatID.Hex(), err)
		return
	}

	recipients := chat.RecipientsOf(msg.SenderID)

	firstDispatch, err := mh.messages.MarkDispatched(ctx, payload.MessageID, recipients)
	if err != nil {
		mh.hub.logger.Error("failed to mark message dispatched",
			zap.String("message_id", payload.MessageID), zap.Error(err))
		return
	}
	if firstDispatch {
		msg.Receivers = recipients
		msg.Dispatched = true
	} else {
		// re-sent message: only recipients still pending are worth
		// another fan-out; everyone else already acknowledged
		recipients = msg.Receivers
	}

	for _, userID := range recipients {
		mh.deliverTo(ctx, msg, userID)
	}
}

// deliverTo places one recipient into their initial delivery state. Two
// signals decide it, in order: an active viewer of the chat goes
// straight to Seen; an online user gets the message on every handle and
// goes to Delivered; an offline user stays Pending and is poked over
// push.
func (mh *MessageHandler) deliverTo(ctx context.Context, msg *model.Message, userID string) {
	messageID := msg.ID.Hex()
	chatID := msg.ChatID.Hex()

	switch {
	case mh.hub.rooms.IsActive(chatID, userID):
		mh.fanOut(userID, msg)

		transitioned, err := mh.messages.MarkSeen(ctx, messageID, userID)
		if err != nil {
			mh.hub.logger.Error("failed to mark seen",
				zap.String("message_id", messageID), zap.Error(err))
			return
		}
		if transitioned {
			mh.notifySender(msg.SenderID, event.EventMessageSeen, messageID, userID)
		}

	case mh.hub.presence.IsOnline(userID):
		mh.fanOut(userID, msg)

		transitioned, err := mh.messages.MarkDelivered(ctx, messageID, userID)
		if err != nil {
			mh.hub.logger.Error("failed to mark delivered",
				zap.String("message_id", messageID), zap.Error(err))
			return
		}
		if transitioned {
			mh.notifySender(msg.SenderID, event.EventMessageDelivered, messageID, userID)
		}

	default:
		// stays Pending; reconnect replay will pick it up
		notification := push.Notification{
			UserID:    userID,
			ChatID:    chatID,
			MessageID: messageID,
			SenderID:  msg.SenderID,
			Preview:   msg.Content,
		}
		if err := mh.pusher.Notify(ctx, notification); err != nil {
			mh.hub.logger.Warn("push notification failed",
				zap.String("user_id", userID),
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
	}
}

// -----------------------------------------------------------------
// Acknowledgements
// -----------------------------------------------------------------

func (mh *MessageHandler) handleMessageAck(ev event.WsEvent, c *Client) {
	var payload model.MessageAckPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		mh.logMalformedPayload(ev.Event, c)
		return
	}

	ctx := mh.hub.ctx

	msg, err := mh.messages.GetMessage(ctx, payload.MessageID)
	if err != nil {
		mh.logLookupFailure("message", payload.MessageID, err)
		return
	}
	if !msg.IsRecipient(c.userID) {
		// stale or malicious ack; never corrupts state
		mh.hub.logger.Debug("ack from non-recipient ignored",
			zap.String("message_id", payload.MessageID),
			zap.String("user_id", c.userID),
		)
		return
	}

	if mh.hub.rooms.IsActive(msg.ChatID.Hex(), c.userID) {
		transitioned, err := mh.messages.MarkSeen(ctx, payload.MessageID, c.userID)
		if err != nil {
			mh.hub.logger.Error("failed to mark seen",
				zap.String("message_id", payload.MessageID), zap.Error(err))
			return
		}
		if transitioned {
			mh.notifySender(msg.SenderID, event.EventMessageSeen, payload.MessageID, c.userID)
		}
		return
	}

	transitioned, err := mh.messages.MarkDelivered(ctx, payload.MessageID, c.userID)
	if err != nil {
		mh.hub.logger.Error("failed to mark delivered",
			zap.String("message_id", payload.MessageID), zap.Error(err))
		return
	}
	if transitioned {
		mh.notifySender(msg.SenderID, event.EventMessageDelivered, payload.MessageID, c.userID)
	}
}

func (mh *MessageHandler) handleMessageSeen(ev event.WsEvent, c *Client) {
	var payload model.MessageAckPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		mh.logMalformedPayload(ev.Event, c)
		return
	}

	ctx := mh.hub.ctx

	msg, err := mh.messages.GetMessage(ctx, payload.MessageID)
	if err != nil {
		mh.logLookupFailure("message", payload.MessageID, err)
		return
	}

	transitioned, err := mh.messages.MarkSeen(ctx, payload.MessageID, c.userID)
	if err != nil {
		mh.hub.logger.Error("failed to mark seen",
			zap.String("message_id", payload.MessageID), zap.Error(err))
		return
	}
	if transitioned {
		mh.notifySender(msg.SenderID, event.EventMessageSeen, payload.MessageID, c.userID)
	}
}

func (mh *MessageHandler) handleChatSeen(ev event.WsEvent, c *Client) {
	var payload model.ChatSeenPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ChatID == "" {
		mh.logMalformedPayload(ev.Event, c)
		return
	}

	ctx := mh.hub.ctx

	unseen, err := mh.messages.UnseenInChat(ctx, payload.ChatID, c.userID)
	if err != nil {
		mh.hub.logger.Error("failed to load unseen messages",
			zap.String("chat_id", payload.ChatID), zap.Error(err))
		return
	}

	for i := range unseen {
		msg := &unseen[i]
		messageID := msg.ID.Hex()

		transitioned, err := mh.messages.MarkSeen(ctx, messageID, c.userID)
		if err != nil {
			mh.hub.logger.Error("failed to mark seen",
				zap.String("message_id", messageID), zap.Error(err))
			continue
		}
		if transitioned {
			mh.notifySender(msg.SenderID, event.EventMessageSeen, messageID, c.userID)
		}
	}
}

// -----------------------------------------------------------------
// Retention
// -----------------------------------------------------------------

// handleMessagePersisted records a durable-storage confirmation and
// strips the message payload once every recipient has confirmed. The
// conditional StripPayload guard makes the strip fire exactly once even
// when the last two confirmations race.
func (mh *MessageHandler) handleMessagePersisted(ev event.WsEvent, c *Client) {
	var payload model.MessagePersistedPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.MessageID == "" {
		mh.logMalformedPayload(ev.Event, c)
		return
	}

	ctx := mh.hub.ctx

	msg, err := mh.messages.GetMessage(ctx, payload.MessageID)
	if err != nil {
		mh.logLookupFailure("message", payload.MessageID, err)
		return
	}

	chat, err := mh.chats.GetChat(ctx, msg.ChatID.Hex())
	if err != nil {
		mh.logLookupFailure("chat", msg.ChatID.Hex(), err)
		return
	}

	if c.userID == msg.SenderID || !chat.HasMember(c.userID) {
		mh.hub.logger.Debug("persistence confirmation from non-recipient ignored",
			zap.String("message_id", payload.MessageID),
			zap.String("user_id", c.userID),
		)
		return
	}

	expected := chat.RecipientCount()
	if expected <= 0 {
		return
	}

	confirmed := mh.hub.receipts.Confirm(payload.MessageID, c.userID)
	if confirmed < expected {
		return
	}

	if _, err := mh.messages.StripPayload(ctx, payload.MessageID); err != nil {
		// receipts kept so a later confirmation retries the strip
		mh.hub.logger.Error("failed to strip message payload",
			zap.String("message_id", payload.MessageID), zap.Error(err))
		return
	}
	mh.hub.receipts.Drop(payload.MessageID)
}

// logMalformedPayload records a payload that failed to parse. No frame
// goes back to the client; malformed input is dropped like any other
// stale event.
func (mh *MessageHandler) logMalformedPayload(name string, c *Client) {
	mh.hub.logger.Debug("malformed event payload dropped",
		zap.String("event", name),
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
	)
}

func (mh *MessageHandler) logLookupFailure(kind, id string, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		mh.hub.logger.Debug("referenced document not found",
			zap.String("kind", kind), zap.String("id", id))
		return
	}
	mh.hub.logger.Error("lookup failed",
		zap.String("kind", kind), zap.String("id", id), zap.Error(err))
}
