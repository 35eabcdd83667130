package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/hari-334/interest-buddies/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub tracks which sessions are subscribed to which group rooms and fans
// frames out to them. It knows nothing about membership rules or storage;
// the gateway decides who may enter a room, the hub only delivers.
type Hub struct {
	// Room map: GroupID -> set of subscribed clients
	rooms map[uuid.UUID]map[*Client]struct{}

	// Reverse index: client -> set of GroupIDs it is subscribed to.
	// Needed so a disconnect can clear every subscription in one pass.
	memberships map[*Client]map[uuid.UUID]struct{}

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance room fan-out
	rdb *redis.Client

	// Identifies this instance so it can skip its own Redis echoes.
	instanceID string

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		rooms:       make(map[uuid.UUID]map[*Client]struct{}),
		memberships: make(map[*Client]map[uuid.UUID]struct{}),
		rdb:         rdb,
		instanceID:  uuid.NewString(),
		logger:      log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.memberships[client]; !ok {
				h.memberships[client] = make(map[uuid.UUID]struct{})
			}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"session_id": client.SessionID,
				"user_id":    client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if groups, ok := h.memberships[client]; ok {
				for groupID := range groups {
					h.removeFromRoom(groupID, client)
				}
				delete(h.memberships, client)
				client.closeSend()
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
					"session_id": client.SessionID,
					"user_id":    client.UserID,
				})
			}
			h.mu.Unlock()
		}
	}
}

// Register enrolls a connection with the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister drops a connection: every room subscription is cleared and the
// Send channel is closed.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// removeFromRoom must be called with h.mu held.
func (h *Hub) removeFromRoom(groupID uuid.UUID, client *Client) {
	if room, ok := h.rooms[groupID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// Subscribe enters a client into a group room. Subscribing twice is a no-op.
func (h *Hub) Subscribe(groupID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[groupID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[groupID] = room
	}
	room[client] = struct{}{}

	groups, ok := h.memberships[client]
	if !ok {
		groups = make(map[uuid.UUID]struct{})
		h.memberships[client] = groups
	}
	groups[groupID] = struct{}{}
}

// Unsubscribe removes a client from one room without closing the connection.
func (h *Hub) Unsubscribe(groupID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(groupID, client)
	if groups, ok := h.memberships[client]; ok {
		delete(groups, groupID)
	}
}

// IsSubscribed reports whether the client currently sits in the room.
func (h *Hub) IsSubscribed(groupID uuid.UUID, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[groupID]
	if !ok {
		return false
	}
	_, in := room[client]
	return in
}

// RoomSize returns how many sessions are subscribed locally.
func (h *Hub) RoomSize(groupID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}

// BroadcastToRoom delivers a frame to every session in the room, on this
// instance and, when Redis is wired, on every other instance too.
func (h *Hub) BroadcastToRoom(groupID uuid.UUID, data []byte) {
	h.deliverLocal(groupID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"instance_id": h.instanceID,
			"group_id":    groupID.String(),
			"message":     json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), "chat_room_events", payload)
	}
}

func (h *Hub) deliverLocal(groupID uuid.UUID, data []byte) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.rooms[groupID] {
		if !client.trySend(data) {
			// Buffer full means the reader is gone or stuck. Drop the
			// session rather than block the whole room.
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping session", map[string]interface{}{
			"session_id": client.SessionID,
			"user_id":    client.UserID,
		})
		h.unregister <- client
	}
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the same channel and filters by room.
	// Frames carry the origin instance id so an instance never re-delivers
	// what it already fanned out locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "chat_room_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			InstanceID string          `json:"instance_id"`
			GroupID    string          `json:"group_id"`
			Message    json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		if payload.InstanceID == h.instanceID {
			continue
		}

		groupID, err := uuid.Parse(payload.GroupID)
		if err != nil {
			continue
		}

		h.deliverLocal(groupID, payload.Message)
	}
}
