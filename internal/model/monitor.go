package model

// MonitorResponse is the hub statistics snapshot served over REST.
type MonitorResponse struct {
	Status      string          `json:"status"`
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Receipts    ReceiptStats    `json:"receipts"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats summarizes the connection registry.
type ConnectionStats struct {
	OnlineUsers      int `json:"onlineUsers"`
	TotalConnections int `json:"totalConnections"`
}

// RoomStats summarizes the room membership tracker.
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo describes one chat's active viewers.
type RoomInfo struct {
	ChatID        string   `json:"chatId"`
	ActiveViewers []string `json:"activeViewers"`
}

// ReceiptStats summarizes outstanding persistence receipts.
type ReceiptStats struct {
	TrackedMessages int `json:"trackedMessages"`
}

// ClientInfo describes one open connection handle.
type ClientInfo struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}
