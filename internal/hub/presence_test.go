package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceRegisterReportsFirstHandle(t *testing.T) {
	p := NewPresenceRegistry()

	first := newClient("alice", nil, nil)
	second := newClient("alice", nil, nil)

	assert.True(t, p.Register(first), "first handle is the offline to online transition")
	assert.False(t, p.Register(second), "second handle is not")
	assert.True(t, p.IsOnline("alice"))
	assert.Len(t, p.HandlesFor("alice"), 2)
}

func TestPresenceUnregisterReportsLastHandle(t *testing.T) {
	p := NewPresenceRegistry()

	first := newClient("alice", nil, nil)
	second := newClient("alice", nil, nil)
	p.Register(first)
	p.Register(second)

	assert.False(t, p.Unregister(first), "one handle remains")
	assert.True(t, p.IsOnline("alice"))

	assert.True(t, p.Unregister(second), "last handle is the online to offline transition")
	assert.False(t, p.IsOnline("alice"))
	assert.Empty(t, p.HandlesFor("alice"))
}

func TestPresenceUnregisterUnknownHandleIsNoOp(t *testing.T) {
	p := NewPresenceRegistry()

	registered := newClient("alice", nil, nil)
	stranger := newClient("alice", nil, nil)
	p.Register(registered)

	assert.False(t, p.Unregister(stranger), "unknown handle never flips a user offline")
	assert.True(t, p.IsOnline("alice"))
}

func TestPresenceCountsAndSnapshot(t *testing.T) {
	p := NewPresenceRegistry()

	p.Register(newClient("alice", nil, nil))
	p.Register(newClient("alice", nil, nil))
	p.Register(newClient("bob", nil, nil))

	users, connections := p.Counts()
	assert.Equal(t, 2, users)
	assert.Equal(t, 3, connections)

	assert.ElementsMatch(t, []string{"alice", "bob"}, p.OnlineUserIDs())
	assert.Len(t, p.Snapshot(), 3)
}
