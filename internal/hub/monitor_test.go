package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorStats(t *testing.T) {
	f := newFixture(t)
	m := NewMonitorService(f.h)

	stats := m.GetStats()
	assert.Equal(t, "idle", stats.Status)
	assert.Zero(t, stats.Connections.TotalConnections)

	alice := f.connect("alice")
	f.register(t, alice)
	bob := f.connect("bob")
	f.register(t, bob)
	f.h.rooms.Join("chat1", "bob")
	f.h.receipts.Confirm("m1", "bob")

	stats = m.GetStats()
	assert.Equal(t, "healthy", stats.Status)
	assert.Equal(t, 2, stats.Connections.OnlineUsers)
	assert.Equal(t, 2, stats.Connections.TotalConnections)
	assert.Equal(t, 1, stats.Rooms.TotalRooms)
	assert.Equal(t, 1, stats.Receipts.TrackedMessages)
	assert.Len(t, stats.Clients, 2)
}
