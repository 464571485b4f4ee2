package event

// Client to Server
const (
	// EventRegisterUser - client announces itself after the handshake;
	// activates presence and triggers the pending-message resync
	EventRegisterUser = "registerUser"

	// EventJoinRoom - client is now viewing a chat
	EventJoinRoom = "joinRoom"

	// EventLeaveRoom - client stopped viewing a chat
	EventLeaveRoom = "leaveRoom"

	// EventSendMessage - dispatch a message already persisted via REST
	EventSendMessage = "sendMessage"

	// EventMessageAck - recipient acknowledges receipt; becomes seen or
	// delivered depending on the recipient's active room
	EventMessageAck = "message:ack"

	// EventMessageSeen - explicit seen acknowledgement for one message
	// (also emitted server to sender, see below)
	EventMessageSeen = "message:seen"

	// EventChatSeen - recipient opened a chat; every unseen message in it
	// is marked seen
	EventChatSeen = "chat:seen"

	// EventMessagePersisted - recipient confirms durable local storage
	EventMessagePersisted = "message:persisted"
)

// Server to Client
const (
	// EventMessageNew - message fan-out to a recipient
	EventMessageNew = "message:new"

	// EventSyncMessages - pending-message snapshot sent on registration
	EventSyncMessages = "sync:messages"

	// EventMessageDelivered - delivery notification to the sender
	EventMessageDelivered = "message:delivered"

	// EventUserOnline - presence broadcast: user came online
	EventUserOnline = "userOnline"

	// EventUserOffline - presence broadcast: user went offline
	EventUserOffline = "userOffline"

	// EventOnlineUsersList - online snapshot sent on registration
	EventOnlineUsersList = "onlineUsersList"
)

// Message types
const (
	MessageTypeText     = "text"
	MessageTypeLocation = "location"
	MessageTypeContact  = "contact"
	MessageTypePoll     = "poll"
	MessageTypeMedia    = "media"
)
