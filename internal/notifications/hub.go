package notifications

import (
	"sync"

	"github.com/gofiber/websocket/v2"

	"almanac/internal/middleware"
)

// Hub fans calendar updates out to every share-view connection watching a
// given client. Connections for different clients never see each other's
// updates.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]struct{}
	closed  bool
}

// NewHub creates an empty share-feed hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[uint]map[*Client]struct{})}
}

// Register adds a websocket connection to the feed for one client and returns
// the managed Client. The caller is expected to run ReadPump/WritePump.
func (h *Hub) Register(conn *websocket.Conn, clientID uint) *Client {
	c := newClient(h, conn, clientID)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.Send)
		return c
	}
	set, ok := h.clients[clientID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[clientID] = set
	}
	set[c] = struct{}{}
	middleware.ShareFeedConnections.Inc()
	return c
}

// Unregister removes a connection; safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.ClientID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.ClientID)
	}
	close(c.Send)
	middleware.ShareFeedConnections.Dec()
}

// Broadcast sends a message to every connection watching the given client.
// Slow consumers whose send buffer is full are dropped rather than allowed to
// stall the feed.
func (h *Hub) Broadcast(clientID uint, message []byte) {
	h.mu.RLock()
	set := h.clients[clientID]
	stalled := make([]*Client, 0)
	for c := range set {
		select {
		case c.Send <- message:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.Unregister(c)
	}
}

// WatchedClients lists every client that currently has at least one
// connection.
func (h *Hub) WatchedClients() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]uint, 0, len(h.clients))
	for clientID := range h.clients {
		out = append(out, clientID)
	}
	return out
}

// ConnectionCount reports active connections for one client.
func (h *Hub) ConnectionCount(clientID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[clientID])
}

// Shutdown closes every connection's send channel and rejects further
// registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for clientID, set := range h.clients {
		for c := range set {
			close(c.Send)
			middleware.ShareFeedConnections.Dec()
		}
		delete(h.clients, clientID)
	}
}
