package hub

import (
	"sync"

	"github.com/AdityaDas31/Whisp-Backend/internal/model"
)

// PresenceRegistry maps a user id to that user's open connection
// handles. A user is online iff their handle set is non-empty. The
// registry is owned by the Hub and injected where needed; updates for
// one user are atomic under the registry lock.
type PresenceRegistry struct {
	mu    sync.RWMutex
	users map[string]map[string]*Client // userID -> clientID -> handle
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		users: make(map[string]map[string]*Client),
	}
}

// Register adds a handle to the user's set and reports whether this was
// the user's first handle (the offline -> online transition).
func (p *PresenceRegistry) Register(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles, ok := p.users[c.userID]
	if !ok {
		handles = make(map[string]*Client)
		p.users[c.userID] = handles
	}
	handles[c.ID] = c
	return !ok
}

// Unregister removes a handle and reports whether the user's set became
// empty (the online -> offline transition). Removing a handle that was
// never registered is a no-op.
func (p *PresenceRegistry) Unregister(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	handles, ok := p.users[c.userID]
	if !ok {
		return false
	}
	if _, exists := handles[c.ID]; !exists {
		return false
	}

	delete(handles, c.ID)
	if len(handles) == 0 {
		delete(p.users, c.userID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one open handle.
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users[userID]) > 0
}

// HandlesFor returns the user's open handles.
func (p *PresenceRegistry) HandlesFor(userID string) []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	handles := make([]*Client, 0, len(p.users[userID]))
	for _, c := range p.users[userID] {
		handles = append(handles, c)
	}
	return handles
}

// OnlineUserIDs returns a snapshot of every online user id.
func (p *PresenceRegistry) OnlineUserIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.users))
	for id := range p.users {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns one entry per registered handle, for the monitor.
func (p *PresenceRegistry) Snapshot() []model.ClientInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clients := make([]model.ClientInfo, 0, len(p.users))
	for userID, handles := range p.users {
		for clientID := range handles {
			clients = append(clients, model.ClientInfo{
				ClientID: clientID,
				UserID:   userID,
			})
		}
	}
	return clients
}

// Counts returns online users and total open handles.
func (p *PresenceRegistry) Counts() (users, connections int) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, handles := range p.users {
		connections += len(handles)
	}
	return len(p.users), connections
}
