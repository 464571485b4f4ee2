package hub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/auth"
	"github.com/AdityaDas31/Whisp-Backend/internal/event"
	"github.com/AdityaDas31/Whisp-Backend/internal/push"
	"github.com/AdityaDas31/Whisp-Backend/internal/repo"
)

type inboundEvent struct {
	event  event.WsEvent
	client *Client
}

// Hub owns every open connection and the in-memory presence state, and
// routes inbound protocol events to the message handler through a
// worker pool. Handlers for one connection arrive in read order; the
// registries serialize cross-connection updates per key.
type Hub struct {
	presence *PresenceRegistry
	rooms    *RoomTracker
	receipts *ReceiptLedger
	handler  *MessageHandler

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundEvent

	// all live handles, registered or not; used for broadcast and Stop
	connections map[string]*Client
	connMu      sync.RWMutex

	verifier       *auth.Verifier
	allowedOrigins map[string]struct{}
	logger         *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(
	messages repo.MessageRepository,
	chats repo.ChatRepository,
	users repo.UserRepository,
	pusher push.Sender,
	verifier *auth.Verifier,
	allowedOrigins []string,
	logger *zap.Logger,
) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	h := &Hub{
		presence:       NewPresenceRegistry(),
		rooms:          NewRoomTracker(),
		receipts:       NewReceiptLedger(),
		register:       make(chan *Client, 1024),
		unregister:     make(chan *Client, 1024),
		inbound:        make(chan inboundEvent, 4096), // buffer for burst handling
		connections:    make(map[string]*Client),
		verifier:       verifier,
		allowedOrigins: origins,
		logger:         logger,
	}
	h.ctx = ctx
	h.cancel = cancel
	h.handler = NewMessageHandler(h, messages, chats, users, pusher)

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-h.inbound:
					h.dispatch(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// Presence exposes the connection registry (read side) to the monitor
// and the REST layer.
func (h *Hub) Presence() *PresenceRegistry { return h.presence }

// Rooms exposes the room tracker to the monitor.
func (h *Hub) Rooms() *RoomTracker { return h.rooms }

// Receipts exposes the receipt ledger to the monitor.
func (h *Hub) Receipts() *ReceiptLedger { return h.receipts }

// dispatch guards every handler invocation: a fault while processing
// one client's event is logged and closes that connection only.
func (h *Hub) dispatch(ev event.WsEvent, c *Client) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic while handling event",
				zap.String("event", ev.Event),
				zap.String("client_id", c.ID),
				zap.Any("panic", r),
			)
			c.Close()
		}
	}()

	h.handler.HandleEvent(ev, c)
}

func (h *Hub) run() {
	pruneTicker := time.NewTicker(receiptPruneInterval)
	defer pruneTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addConnection(c)
		case c := <-h.unregister:
			h.removeConnection(c)
		case <-pruneTicker.C:
			if n := h.receipts.Prune(receiptMaxIdle); n > 0 {
				h.logger.Info("stale persistence receipts pruned", zap.Int("count", n))
			}
		}
	}
}

func (h *Hub) addConnection(c *Client) {
	h.connMu.Lock()
	h.connections[c.ID] = c
	h.connMu.Unlock()

	h.logger.Debug("connection accepted",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
	)
}

func (h *Hub) removeConnection(c *Client) {
	h.connMu.Lock()
	delete(h.connections, c.ID)
	h.connMu.Unlock()

	c.Close()

	if c.IsRegistered() {
		h.handler.handleDisconnect(c)
	}

	h.logger.Debug("connection removed",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
	)
}

// allConnectionsExcept snapshots the live handles belonging to users
// other than exceptUserID.
func (h *Hub) allConnectionsExcept(exceptUserID string) []*Client {
	h.connMu.RLock()
	defer h.connMu.RUnlock()

	clients := make([]*Client, 0, len(h.connections))
	for _, c := range h.connections {
		if c.userID != exceptUserID {
			clients = append(clients, c)
		}
	}
	return clients
}

// Stop cancels the hub context and closes every connection. The inbound
// channel is never closed: a reader goroutine can be blocked mid-send on
// it, and a send on a closed channel panics. Workers drain via ctx.
func (h *Hub) Stop() {
	h.cancel()

	h.connMu.RLock()
	for _, c := range h.connections {
		c.Close()
	}
	h.connMu.RUnlock()

	h.wg.Wait()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	_, ok := h.allowedOrigins[r.Header.Get("Origin")]
	return ok
}

// ServeWS authenticates the handshake credential and upgrades the
// connection. An invalid or missing credential rejects the request
// before any event handler can run.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.verifier.VerifyRequest(r)
	if err != nil {
		h.logger.Warn("rejected unauthenticated connection", zap.Error(err))
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	upgrader := websocketUpgrader
	upgrader.CheckOrigin = h.checkOrigin

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(userID, conn, h)

	select {
	case h.register <- c:
		go c.ReadMessages()
		go c.WriteMessages()
	case <-time.After(registerTimeout):
		h.logger.Warn("failed to accept connection: timeout", zap.String("client_id", c.ID))
		c.cancel()
		conn.Close()
	}
}
