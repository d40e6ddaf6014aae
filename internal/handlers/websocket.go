package handlers

import (
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/avoronova/fieldpulse-api/internal/middleware"
)

// Event types sent over WebSocket
const (
	EventReportSubmitted = "report_submitted"
	EventSummarySaved    = "summary_saved"
	EventGoalUpdated     = "goal_updated"
	EventGoalDeleted     = "goal_deleted"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type   string      `json:"type"`
	Team   string      `json:"team"`
	UserID string      `json:"userId"`
	Data   interface{} `json:"data,omitempty"`
}

// connection wraps a websocket connection with its user ID
type connection struct {
	conn   *websocket.Conn
	userID uuid.UUID
}

// Hub manages WebSocket connections per team room. Rooms are keyed by the
// teamlead name; the empty key is the org-wide room managers listen on.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*connection]bool
}

// Global hub instance
var WS = &Hub{
	rooms: make(map[string]map[*connection]bool),
}

func (h *Hub) register(team string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[team] == nil {
		h.rooms[team] = make(map[*connection]bool)
	}
	h.rooms[team][conn] = true
	log.Printf("WS register: user %s joined room %q (total: %d)", conn.userID, team, len(h.rooms[team]))
}

func (h *Hub) unregister(team string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[team]; ok {
		delete(conns, conn)
		log.Printf("WS unregister: user %s left room %q (remaining: %d)", conn.userID, team, len(conns))
		if len(conns) == 0 {
			delete(h.rooms, team)
		}
	}
}

// Broadcast sends an event to all connections in a team room, excluding the
// sender. Events also go to the org-wide room so managers see team activity.
func (h *Hub) Broadcast(team string, excludeUserID uuid.UUID, event WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS broadcast marshal error: %v", err)
		return
	}

	deliver := func(room string) {
		for c := range h.rooms[room] {
			if c.userID == excludeUserID {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("WS write error: %v", err)
			}
		}
	}

	deliver(team)
	if team != "" {
		deliver("")
	}
}

// WebSocketUpgrade checks the upgrade request and validates the JWT. Browsers
// cannot set headers on websocket requests, so the token also rides a query
// param.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		tokenString := c.Query("token")
		if tokenString == "" {
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// HandleWebSocket handles a WebSocket connection for one team room. The room
// name is the teamlead name from the path; "_org" subscribes to the org-wide
// room.
func HandleWebSocket(c *websocket.Conn) {
	team := ownerParam(c.Params("owner"))
	if team == "_org" {
		team = ""
	}

	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	WS.register(team, conn)
	defer WS.unregister(team, conn)

	// Keep connection alive; clients send pings/keepalives.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
