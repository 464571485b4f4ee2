package hub

import (
	"sync"

	"github.com/AdityaDas31/Whisp-Backend/internal/model"
)

// RoomTracker records which users are actively viewing which chat. It
// is independent of the connection registry: joining is an explicit
// client signal, and membership is removed on explicit leave or when
// the user goes fully offline.
type RoomTracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{} // chatID -> set of userIDs
}

func NewRoomTracker() *RoomTracker {
	return &RoomTracker{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Join marks the user as viewing the chat. Idempotent.
func (t *RoomTracker) Join(chatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	viewers, ok := t.rooms[chatID]
	if !ok {
		viewers = make(map[string]struct{})
		t.rooms[chatID] = viewers
	}
	viewers[userID] = struct{}{}
}

// Leave removes the user from the chat's activity set. Idempotent.
func (t *RoomTracker) Leave(chatID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	viewers, ok := t.rooms[chatID]
	if !ok {
		return
	}
	delete(viewers, userID)
	if len(viewers) == 0 {
		delete(t.rooms, chatID)
	}
}

// IsActive reports whether the user is currently viewing the chat.
func (t *RoomTracker) IsActive(chatID, userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	viewers, ok := t.rooms[chatID]
	if !ok {
		return false
	}
	_, active := viewers[userID]
	return active
}

// PurgeUser removes the user from every chat's activity set. Called when
// the user goes fully offline; a user cannot view a room without a
// connection.
func (t *RoomTracker) PurgeUser(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for chatID, viewers := range t.rooms {
		delete(viewers, userID)
		if len(viewers) == 0 {
			delete(t.rooms, chatID)
		}
	}
}

// Snapshot returns the active-viewer sets for the monitor.
func (t *RoomTracker) Snapshot() []model.RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rooms := make([]model.RoomInfo, 0, len(t.rooms))
	for chatID, viewers := range t.rooms {
		ids := make([]string, 0, len(viewers))
		for userID := range viewers {
			ids = append(ids, userID)
		}
		rooms = append(rooms, model.RoomInfo{
			ChatID:        chatID,
			ActiveViewers: ids,
		})
	}
	return rooms
}
