package model

import "time"

// -----------------------------------------------------------------
// WebSocket Event Payloads - Client to Server
// -----------------------------------------------------------------

// RegisterUserPayload activates presence for the authenticated user.
// UserID is advisory; the identity from the handshake credential wins.
type RegisterUserPayload struct {
	UserID string `json:"userId"`
}

// JoinRoomPayload marks a chat as actively viewed by the sender.
type JoinRoomPayload struct {
	ChatID string `json:"chatId"`
}

// LeaveRoomPayload clears the active-room mark for a chat.
type LeaveRoomPayload struct {
	ChatID string `json:"chatId"`
}

// SendMessagePayload dispatches an already persisted message.
type SendMessagePayload struct {
	MessageID string `json:"messageId"`
}

// MessageAckPayload acknowledges receipt of one message.
type MessageAckPayload struct {
	MessageID string `json:"messageId"`
}

// ChatSeenPayload marks every unseen message in a chat as seen.
type ChatSeenPayload struct {
	ChatID string `json:"chatId"`
}

// MessagePersistedPayload confirms durable local storage of a message.
type MessagePersistedPayload struct {
	MessageID string `json:"messageId"`
}

// -----------------------------------------------------------------
// WebSocket Event Payloads - Server to Client
// -----------------------------------------------------------------

// MessageDeliveredEvent tells the sender a recipient received the message.
type MessageDeliveredEvent struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// MessageSeenEvent tells the sender a recipient saw the message.
type MessageSeenEvent struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// UserOnlineEvent is broadcast when a user's first handle connects.
type UserOnlineEvent struct {
	UserID string `json:"userId"`
}

// UserOfflineEvent is broadcast when a user's last handle closes.
type UserOfflineEvent struct {
	UserID   string    `json:"userId"`
	LastSeen time.Time `json:"lastSeen"`
}

// OnlineUsersListEvent is the presence snapshot sent on registration.
type OnlineUsersListEvent struct {
	Users []string `json:"users"`
}

// SyncMessagesEvent carries the pending-message snapshot on registration.
type SyncMessagesEvent struct {
	Messages []Message `json:"messages"`
}
