package hub

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/auth"
	"github.com/AdityaDas31/Whisp-Backend/internal/event"
	"github.com/AdityaDas31/Whisp-Backend/internal/model"
	"github.com/AdityaDas31/Whisp-Backend/internal/push"
	"github.com/AdityaDas31/Whisp-Backend/internal/repo"
)

// In-memory repository fakes mirroring the conditional-update semantics
// of the mongo implementations: every Mark* reports whether it actually
// changed state.

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs map[string]*model.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{msgs: make(map[string]*model.Message)}
}

func (f *fakeMessageRepo) add(msg *model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs[msg.ID.Hex()] = msg
}

func (f *fakeMessageRepo) get(messageID string) *model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.msgs[messageID]; ok {
		copied := *msg
		return &copied
	}
	return nil
}

func (f *fakeMessageRepo) GetMessage(_ context.Context, messageID string) (*model.Message, error) {
	if msg := f.get(messageID); msg != nil {
		return msg, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeMessageRepo) MarkDispatched(_ context.Context, messageID string, recipients []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.msgs[messageID]
	if !ok || msg.Dispatched {
		return false, nil
	}
	msg.Receivers = append([]string(nil), recipients...)
	msg.Dispatched = true
	return true, nil
}

func (f *fakeMessageRepo) MarkDelivered(_ context.Context, messageID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.msgs[messageID]
	if !ok || !containsID(msg.Receivers, userID) {
		return false, nil
	}
	msg.Receivers = removeID(msg.Receivers, userID)
	msg.DeliveredTo = append(msg.DeliveredTo, userID)
	return true, nil
}

func (f *fakeMessageRepo) MarkSeen(_ context.Context, messageID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.msgs[messageID]
	if !ok || containsID(msg.SeenBy, userID) {
		return false, nil
	}
	if !containsID(msg.Receivers, userID) && !containsID(msg.DeliveredTo, userID) {
		return false, nil
	}
	msg.Receivers = removeID(msg.Receivers, userID)
	msg.DeliveredTo = removeID(msg.DeliveredTo, userID)
	msg.SeenBy = append(msg.SeenBy, userID)
	return true, nil
}

func (f *fakeMessageRepo) PendingFor(_ context.Context, userID string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var pending []model.Message
	for _, msg := range f.msgs {
		if containsID(msg.Receivers, userID) {
			pending = append(pending, *msg)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (f *fakeMessageRepo) UnseenInChat(_ context.Context, chatID, userID string) ([]model.Message, error) {
	// mirrors the mongo repository: a chat id that does not parse
	// rejects the query instead of matching across chats
	if _, err := primitive.ObjectIDFromHex(chatID); err != nil {
		return nil, repo.ErrInvalidID
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var unseen []model.Message
	for _, msg := range f.msgs {
		if msg.ChatID.Hex() != chatID || msg.SenderID == userID || containsID(msg.SeenBy, userID) {
			continue
		}
		unseen = append(unseen, *msg)
	}
	sort.Slice(unseen, func(i, j int) bool {
		return unseen[i].CreatedAt.Before(unseen[j].CreatedAt)
	})
	return unseen, nil
}

func (f *fakeMessageRepo) StripPayload(_ context.Context, messageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.msgs[messageID]
	if !ok || msg.PayloadStripped {
		return false, nil
	}
	msg.Content = ""
	msg.Media = nil
	msg.Location = nil
	msg.Contact = nil
	msg.Poll = nil
	msg.PayloadStripped = true
	return true, nil
}

type fakeChatRepo struct {
	mu    sync.Mutex
	chats map[string]*model.Chat
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[string]*model.Chat)}
}

func (f *fakeChatRepo) add(chat *model.Chat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[chat.ID.Hex()] = chat
}

func (f *fakeChatRepo) GetChat(_ context.Context, chatID string) (*model.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if chat, ok := f.chats[chatID]; ok {
		copied := *chat
		return &copied, nil
	}
	return nil, repo.ErrNotFound
}

type fakeUserRepo struct {
	mu      sync.Mutex
	online  map[string]bool
	offline map[string]time.Time
}

func (f *fakeUserRepo) SetOnline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.online == nil {
		f.online = make(map[string]bool)
	}
	f.online[userID] = true
	return nil
}

func (f *fakeUserRepo) SetOffline(_ context.Context, userID string, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.online == nil {
		f.online = make(map[string]bool)
	}
	if f.offline == nil {
		f.offline = make(map[string]time.Time)
	}
	f.online[userID] = false
	f.offline[userID] = lastSeen
	return nil
}

func (f *fakeUserRepo) isOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakeUserRepo) wentOffline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.offline[userID]
	return ok
}

type fakePushSender struct {
	mu   sync.Mutex
	sent []push.Notification
}

func (f *fakePushSender) Notify(_ context.Context, n push.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakePushSender) notifications() []push.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]push.Notification(nil), f.sent...)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// -----------------------------------------------------------------
// Fixture
// -----------------------------------------------------------------

type fixture struct {
	h        *Hub
	messages *fakeMessageRepo
	chats    *fakeChatRepo
	users    *fakeUserRepo
	push     *fakePushSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	messages := newFakeMessageRepo()
	chats := newFakeChatRepo()
	users := &fakeUserRepo{}
	pusher := &fakePushSender{}

	h := NewHub(messages, chats, users, pusher,
		auth.NewVerifier([]byte("test-secret")), nil, zap.NewNop())
	t.Cleanup(h.Stop)

	return &fixture{h: h, messages: messages, chats: chats, users: users, push: pusher}
}

// connect opens a bare handle; no registration yet.
func (f *fixture) connect(userID string) *Client {
	c := newClient(userID, nil, f.h)
	f.h.addConnection(c)
	return c
}

// register runs the registerUser flow synchronously on the handle.
func (f *fixture) register(t *testing.T, c *Client) {
	t.Helper()
	f.handle(t, c, event.EventRegisterUser, model.RegisterUserPayload{UserID: c.userID})
}

// handle delivers one event straight to the message handler, bypassing
// the worker pool so assertions can run without synchronization.
func (f *fixture) handle(t *testing.T, c *Client, name string, payload interface{}) {
	t.Helper()
	ev, err := event.New(name, payload)
	require.NoError(t, err)
	f.h.handler.HandleEvent(ev, c)
}

func (f *fixture) seedChat(members ...string) *model.Chat {
	chat := &model.Chat{
		ID:          primitive.NewObjectID(),
		Users:       members,
		IsGroupChat: len(members) > 2,
		CreatedAt:   time.Now(),
	}
	f.chats.add(chat)
	return chat
}

func (f *fixture) seedMessage(chat *model.Chat, senderID, content string) *model.Message {
	msg := &model.Message{
		ID:        primitive.NewObjectID(),
		SenderID:  senderID,
		ChatID:    chat.ID,
		Type:      event.MessageTypeText,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.messages.add(msg)
	return msg
}

// seedPending stores a message already dispatched to recipients, the
// state left behind when every recipient was offline.
func (f *fixture) seedPending(chat *model.Chat, senderID, content string, recipients ...string) *model.Message {
	msg := f.seedMessage(chat, senderID, content)
	msg.Dispatched = true
	msg.Receivers = recipients
	return msg
}

// drain empties a handle's egress buffer.
func drain(c *Client) []event.WsEvent {
	var evs []event.WsEvent
	for {
		select {
		case ev := <-c.egress:
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func eventNames(evs []event.WsEvent) []string {
	names := make([]string, 0, len(evs))
	for _, ev := range evs {
		names = append(names, ev.Event)
	}
	return names
}

func countEvents(evs []event.WsEvent, name string) int {
	n := 0
	for _, ev := range evs {
		if ev.Event == name {
			n++
		}
	}
	return n
}
