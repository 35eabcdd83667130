package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/hari-334/interest-buddies/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Gateway receives the decoded inbound chat events. Implemented by the
// service layer so this package stays free of storage concerns.
type Gateway interface {
	HandleJoinGroup(client *Client, data dto.JoinGroupData)
	HandleSendMessage(client *Client, data dto.SendMessageData)
}

// Client is a middleman between one websocket connection and the hub.
// A user with two tabs open gets two independent clients.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// SessionID identifies this connection, not the user behind it.
	SessionID uuid.UUID

	// Authenticated identity from the JWT handshake. Message attribution
	// always uses these, never the session id.
	UserID      uuid.UUID
	DisplayName string

	gateway Gateway

	// Buffered channel of outbound messages. Only closeSend may close it;
	// all writes go through trySend so a frame can never race the close.
	Send chan []byte

	sendMu     sync.Mutex
	sendClosed bool
}

// trySend queues a frame unless the session is already closed or its buffer
// is full. The hub closes dropped sessions while their readPump may still be
// producing acks, so an unguarded channel send here would panic.
func (c *Client) trySend(frame []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

// closeSend closes the Send channel exactly once.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
}

// SendEvent marshals an envelope and queues it for this session only.
// Returns false when the session's buffer is full and the frame was dropped.
func (c *Client) SendEvent(event string, data interface{}) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	frame, err := json.Marshal(dto.WsEnvelope{Event: event, Data: raw})
	if err != nil {
		return false
	}
	return c.trySend(frame)
}

// SendError delivers a directed error ack to this session only.
func (c *Client) SendError(event, message string) {
	c.SendEvent("error", dto.WsErrorPayload{Event: event, Message: message})
}

// readPump pumps messages from the websocket connection to the gateway.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("readPump error for session %s: %v", c.SessionID, err)
			}
			break
		}

		var envelope dto.WsEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.SendError("", "malformed frame")
			continue
		}

		switch envelope.Event {
		case "join-group":
			var data dto.JoinGroupData
			if err := json.Unmarshal(envelope.Data, &data); err != nil {
				c.SendError("join-group", "malformed payload")
				continue
			}
			c.gateway.HandleJoinGroup(c, data)

		case "send-message":
			var data dto.SendMessageData
			if err := json.Unmarshal(envelope.Data, &data); err != nil {
				c.SendError("send-message", "malformed payload")
				continue
			}
			c.gateway.HandleSendMessage(c, data)

		default:
			c.SendError(envelope.Event, "unknown event")
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
