package hub

import "github.com/AdityaDas31/Whisp-Backend/internal/model"

// MonitorService exposes hub internals as a read-only snapshot for the
// operations endpoint.
type MonitorService struct {
	hub *Hub
}

func NewMonitorService(h *Hub) *MonitorService {
	return &MonitorService{hub: h}
}

// GetStats assembles a point-in-time view of the registries. The three
// snapshots are taken independently, so the numbers may be a frame
// apart under load; that is fine for an operator's eyeball check.
func (m *MonitorService) GetStats() model.MonitorResponse {
	users, connections := m.hub.presence.Counts()
	rooms := m.hub.rooms.Snapshot()

	status := "healthy"
	if connections == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnectionStats{
			OnlineUsers:      users,
			TotalConnections: connections,
		},
		Rooms: model.RoomStats{
			TotalRooms:  len(rooms),
			RoomDetails: rooms,
		},
		Receipts: model.ReceiptStats{
			TrackedMessages: m.hub.receipts.Tracked(),
		},
		Clients: m.hub.presence.Snapshot(),
	}
}
