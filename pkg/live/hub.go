// Package live pushes mutation events to connected clients over
// websockets. It stands in for the original design's live subscriptions;
// polling the query endpoints observes the same state.
package live

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"conversadb/pkg/chat"
	"conversadb/pkg/logger"
)

const (
	sendBuffer    = 64
	writeTimeout  = 10 * time.Second
	pingInterval  = 25 * time.Second
	maxReadLimit  = 512
)

// Client is one websocket connection belonging to a user. A user may hold
// several connections (tabs, devices); each gets its own send queue.
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan chat.Event
	done   chan struct{}
	once   sync.Once
}

// Hub tracks active connections per user and fans events out to them.
// Delivery is best-effort: a slow consumer's event is dropped rather than
// blocking the mutation path.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

// Register wires a new connection for userID and starts its pump
// goroutines. The caller keeps ownership of reading control frames via the
// client's internal read loop.
func (h *Hub) Register(userID string, conn *websocket.Conn) *Client {
	c := &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan chat.Event, sendBuffer),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()
	go c.readLoop(h)
	logger.Debug("ws_client_registered", "user", userID)
	return c
}

// Unregister removes the connection and closes it.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Notify implements chat.Notifier: the event is queued to every connection
// of every listed user.
func (h *Hub) Notify(userIDs []string, ev chat.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, uid := range userIDs {
		for c := range h.clients[uid] {
			select {
			case c.send <- ev:
			default:
				logger.Warn("ws_event_dropped", "user", uid, "type", ev.Type)
			}
		}
	}
}

// ConnectedUsers returns the number of distinct users with at least one
// open connection.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// readLoop drains the connection so control frames are processed and
// unregisters on close. Clients never send application data on this socket.
func (c *Client) readLoop(h *Hub) {
	c.conn.SetReadLimit(maxReadLimit)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.Unregister(c)
			return
		}
	}
}
