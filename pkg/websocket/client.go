package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	ID         string
	rooms      map[string]bool
	pingPeriod time.Duration
	pongWait   time.Duration
}

// NewClient creates a client that joins rooms once registered.
func NewClient(hub *Hub, conn *websocket.Conn, id string, rooms ...string) *Client {
	c := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		ID:         id,
		rooms:      make(map[string]bool, len(rooms)),
		pingPeriod: 54 * time.Second,
		pongWait:   60 * time.Second,
	}
	for _, r := range rooms {
		c.rooms[r] = true
	}
	return c
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithField("client_id", c.ID).Warn("WebSocket read failed")
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage serves the small client protocol: ping, and joining or
// leaving further trip rooms.
func (c *Client) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.logger.WithField("client_id", c.ID).Debug("Ignoring malformed websocket message")
		return
	}

	switch msg.Type {
	case "ping":
		c.hub.sendToClient(c, Message{Type: "pong", Timestamp: getCurrentTimestamp()})

	case "join_room":
		if msg.RoomID != "" {
			c.hub.JoinRoom(c, msg.RoomID)
			c.hub.sendToClient(c, Message{Type: "subscribed", RoomID: msg.RoomID, Timestamp: getCurrentTimestamp()})
		}

	case "leave_room":
		if msg.RoomID != "" {
			c.hub.LeaveRoom(c, msg.RoomID)
		}
	}
}
