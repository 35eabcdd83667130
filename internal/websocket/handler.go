package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs wires one upgraded connection into the hub and blocks until the
// connection dies. Each connection gets a fresh session id.
func ServeWs(hub *Hub, gateway Gateway, c *websocket.Conn, userID uuid.UUID, displayName string) {
	client := &Client{
		Hub:         hub,
		Conn:        c,
		SessionID:   uuid.New(),
		UserID:      userID,
		DisplayName: displayName,
		gateway:     gateway,
		Send:        make(chan []byte, 256),
	}
	client.Hub.Register(client)

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
