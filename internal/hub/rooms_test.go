package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomJoinLeave(t *testing.T) {
	r := NewRoomTracker()

	r.Join("chat1", "alice")
	assert.True(t, r.IsActive("chat1", "alice"))
	assert.False(t, r.IsActive("chat1", "bob"))
	assert.False(t, r.IsActive("chat2", "alice"))

	// idempotent
	r.Join("chat1", "alice")
	r.Leave("chat1", "alice")
	assert.False(t, r.IsActive("chat1", "alice"))

	r.Leave("chat1", "alice")
	r.Leave("nosuchroom", "alice")
}

func TestRoomPurgeUser(t *testing.T) {
	r := NewRoomTracker()

	r.Join("chat1", "alice")
	r.Join("chat2", "alice")
	r.Join("chat2", "bob")

	r.PurgeUser("alice")

	assert.False(t, r.IsActive("chat1", "alice"))
	assert.False(t, r.IsActive("chat2", "alice"))
	assert.True(t, r.IsActive("chat2", "bob"), "purge only touches the one user")
}

func TestRoomSnapshot(t *testing.T) {
	r := NewRoomTracker()

	r.Join("chat1", "alice")
	r.Join("chat1", "bob")
	r.Join("chat2", "bob")
	r.Leave("chat2", "bob")

	rooms := r.Snapshot()
	assert.Len(t, rooms, 1, "emptied rooms are dropped")
	assert.Equal(t, "chat1", rooms[0].ChatID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, rooms[0].ActiveViewers)
}
