package handlers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dynaqr/backend/internal/auth"
	"github.com/dynaqr/backend/internal/events"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WSHub streams scan and registry events to connected organizer dashboards.
// A connection may filter to one event via ?event=<id>; without a filter it
// receives everything.
type WSHub struct {
	jwtSecret  string
	subscriber events.Subscriber
	log        *zap.Logger

	mu          sync.RWMutex
	connections map[*websocket.Conn]string // conn -> event filter ("" = all)
}

func NewWSHub(jwtSecret string, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		jwtSecret:   jwtSecret,
		subscriber:  subscriber,
		connections: make(map[*websocket.Conn]string),
		log:         log,
	}
}

func (h *WSHub) Start(ctx context.Context) {
	_ = h.subscriber.Subscribe(ctx, events.StreamScans, h.broadcast)
	_ = h.subscriber.Subscribe(ctx, events.StreamRegistry, h.broadcast)
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	eventID, _ := event.Payload["event_id"].(string)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn, filter := range h.connections {
		if filter != "" && filter != eventID {
			continue
		}
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
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

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	if _, err := auth.ParseJWT(h.jwtSecret, tokenStr); err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	filter := conn.Query("event")

	h.mu.Lock()
	h.connections[conn] = filter
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.connections, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
