package hub

import (
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/event"
	"github.com/AdityaDas31/Whisp-Backend/internal/model"
)

// Outbound delivery helpers. Every send goes through SafeSend so a
// slow or dead handle drops the frame instead of stalling a worker;
// dropped frames are recovered by the reconnect replay.

func (mh *MessageHandler) sendToClient(c *Client, name string, payload interface{}) {
	ev, err := event.New(name, payload)
	if err != nil {
		mh.hub.logger.Error("failed to marshal outbound event",
			zap.String("event", name), zap.Error(err))
		return
	}
	if !c.SafeSend(ev, sendTimeout) {
		mh.hub.logger.Warn("outbound event dropped",
			zap.String("event", name),
			zap.String("client_id", c.ID),
			zap.String("user_id", c.userID),
		)
	}
}

// fanOut sends the message document to every live handle of a user.
func (mh *MessageHandler) fanOut(userID string, msg *model.Message) {
	handles := mh.hub.presence.HandlesFor(userID)
	if len(handles) == 0 {
		return
	}

	ev, err := event.New(event.EventMessageNew, msg)
	if err != nil {
		mh.hub.logger.Error("failed to marshal message", zap.Error(err))
		return
	}

	for _, c := range handles {
		if !c.SafeSend(ev, sendTimeout) {
			mh.hub.logger.Warn("message fan-out dropped",
				zap.String("message_id", msg.ID.Hex()),
				zap.String("client_id", c.ID),
			)
		}
	}
}

// notifySender tells the sender a recipient advanced. An offline sender
// simply misses the notification; the durable state is authoritative.
func (mh *MessageHandler) notifySender(senderID, name, messageID, userID string) {
	handles := mh.hub.presence.HandlesFor(senderID)
	if len(handles) == 0 {
		return
	}

	var payload interface{}
	switch name {
	case event.EventMessageSeen:
		payload = model.MessageSeenEvent{MessageID: messageID, UserID: userID}
	default:
		payload = model.MessageDeliveredEvent{MessageID: messageID, UserID: userID}
	}

	ev, err := event.New(name, payload)
	if err != nil {
		mh.hub.logger.Error("failed to marshal receipt event",
			zap.String("event", name), zap.Error(err))
		return
	}

	for _, c := range handles {
		if !c.SafeSend(ev, sendTimeout) {
			mh.hub.logger.Warn("receipt notification dropped",
				zap.String("event", name),
				zap.String("message_id", messageID),
			)
		}
	}
}

// broadcastExcept fans a presence event to every connection except the
// subject's own handles.
func (mh *MessageHandler) broadcastExcept(exceptUserID, name string, payload interface{}) {
	ev, err := event.New(name, payload)
	if err != nil {
		mh.hub.logger.Error("failed to marshal broadcast event",
			zap.String("event", name), zap.Error(err))
		return
	}

	for _, c := range mh.hub.allConnectionsExcept(exceptUserID) {
		c.SafeSend(ev, sendTimeout)
	}
}
