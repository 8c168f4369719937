package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"hoa-backend/internal/metrics"
	"hoa-backend/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Workflow events pushed to staff dashboards.
const (
	EventPaymentSubmitted      = "payment.submitted"
	EventPaymentUpdated        = "payment.updated"
	EventReservationCreated    = "reservation.created"
	EventReservationUpdated    = "reservation.updated"
	EventContributionSubmitted = "contribution.submitted"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is one event as written to the socket.
type Message struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

// Publisher is what services need from the hub.
type Publisher interface {
	Publish(eventType string, data any)
}

// Hub fans workflow events out to connected admins and staff.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]bool

	register   chan *client
	unregister chan *client
	broadcast  chan *Message
}

type client struct {
	hub    *Hub
	ws     *websocket.Conn
	userID int
	role   string
	send   chan *Message
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *Message, 256),
	}
}

// Run owns client registration and delivery until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.RLock()
			conns := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				conns = append(conns, c)
			}
			h.mu.RUnlock()

			// closing the sockets makes the pumps unregister themselves
			for _, c := range conns {
				_ = c.ws.Close()
			}
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			metrics.WebsocketClients.Inc()

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*client
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.remove(c)
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WebsocketClients.Dec()
}

// Publish queues an event for every subscriber. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Publish(eventType string, data any) {
	if h == nil {
		return
	}
	msg := &Message{Type: eventType, Data: data, At: time.Now().UTC()}
	select {
	case h.broadcast <- msg:
	default:
		utils.Logger.WithField("event", eventType).Warn("notify: broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and subscribes the already authenticated user.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int, role string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger.WithError(err).Warn("notify: websocket upgrade failed")
		return
	}

	c := &client{
		hub:    h,
		ws:     ws,
		userID: userID,
		role:   role,
		send:   make(chan *Message, sendBuffer),
	}
	h.register <- c

	utils.Logger.WithFields(logrus.Fields{"user_id": userID, "role": role}).Debug("notify: client connected")

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.ws.Close()
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.Logger.WithError(err).Debug("notify: read error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
