package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/citypulse/citypulse-ai/internal/metrics"
	"github.com/citypulse/citypulse-ai/internal/models"
)

// WebSocket message types
const (
	MessageTypeAlert     = "alert"
	MessageTypeHeartbeat = "heartbeat"
)

// WSMessage is the envelope written to alert subscribers.
type WSMessage struct {
	Type      string        `json:"type"`
	Alert     *models.Alert `json:"alert,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// AlertHub fans engine alerts out to WebSocket subscribers. It implements
// pattern.AlertSink. A subscriber that cannot keep up has its buffer
// overrun entries dropped rather than blocking the engine.
type AlertHub struct {
	mu             sync.RWMutex
	clients        map[*wsClient]bool
	allowedOrigins []string
	log            *zap.Logger
}

// NewAlertHub creates an alert hub enforcing the given WebSocket origins.
func NewAlertHub(allowedOrigins []string, log *zap.Logger) *AlertHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertHub{
		clients:        make(map[*wsClient]bool),
		allowedOrigins: allowedOrigins,
		log:            log,
	}
}

// Publish broadcasts the alert to every subscriber.
func (h *AlertHub) Publish(alert models.Alert) {
	msg := &WSMessage{
		Type:      MessageTypeAlert,
		Alert:     &alert,
		Timestamp: time.Now(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
			metrics.WebSocketMessagesTotal.WithLabelValues("outbound").Inc()
		default:
			// Slow subscriber, drop the alert for this client
			h.log.Warn("dropping alert for slow subscriber", zap.String("alert_id", alert.ID))
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *AlertHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every subscriber, used on shutdown.
func (h *AlertHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
		metrics.WebSocketConnections.Dec()
	}
}

// checkOrigin validates the request origin against the configured list.
func (h *AlertHub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin header
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// wsClient is one subscribed WebSocket connection.
type wsClient struct {
	conn *websocket.Conn
	send chan *WSMessage
}

// HandleStream upgrades the request and streams alerts until the client
// disconnects.
func (h *AlertHub) HandleStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan *WSMessage, 64),
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	metrics.WebSocketConnections.Inc()

	h.log.Info("alert subscriber connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(client)
	h.readPump(client)
}

// readPump drains inbound frames so close frames are processed; subscribers
// are not expected to send anything.
func (h *AlertHub) readPump(c *wsClient) {
	defer h.drop(c)

	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		metrics.WebSocketMessagesTotal.WithLabelValues("inbound").Inc()
	}
}

// writePump writes queued alerts and periodic heartbeats.
func (h *AlertHub) writePump(c *wsClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(time.Second))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(&WSMessage{Type: MessageTypeHeartbeat, Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

// drop unregisters the client and closes its connection.
func (h *AlertHub) drop(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		metrics.WebSocketConnections.Dec()
	}
	h.mu.Unlock()
	c.conn.Close()
}
