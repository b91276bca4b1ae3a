package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/issue-activity/backend/internal/events"
	"go.uber.org/zap"
)

// WSHub forwards live activity events to the clients watching the issue.
type WSHub struct {
	subscriber  events.Subscriber
	channel     string
	log         *zap.Logger
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
}

func NewWSHub(subscriber events.Subscriber, channel string, log *zap.Logger) *WSHub {
	if channel == "" {
		channel = events.DefaultActivityChannel
	}
	return &WSHub{
		subscriber:  subscriber,
		channel:     channel,
		log:         log,
		connections: make(map[uuid.UUID][]*websocket.Conn),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	return h.subscriber.Subscribe(ctx, h.channel, h.broadcast)
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[event.IssueID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("ws write failed", zap.String("issue_id", event.IssueID.String()), zap.Error(err))
		}
	}
}

// Watchers returns the number of open connections for an issue.
func (h *WSHub) Watchers(issueID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[issueID])
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) register(issueID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	h.connections[issueID] = append(h.connections[issueID], conn)
	h.mu.Unlock()
}

func (h *WSHub) unregister(issueID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.connections[issueID]
	for i, c := range conns {
		if c == conn {
			h.connections[issueID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.connections[issueID]) == 0 {
		delete(h.connections, issueID)
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	issueID, err := uuid.Parse(conn.Query("issue_id"))
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid issue_id"}`))
		conn.Close()
		return
	}

	h.register(issueID, conn)
	h.log.Debug("ws connected", zap.String("issue_id", issueID.String()), zap.Int("watchers", h.Watchers(issueID)))
	defer func() {
		h.unregister(issueID, conn)
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
