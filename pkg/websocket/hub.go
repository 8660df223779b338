package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"busledger/pkg/logger"
)

// Hub fans messages out to clients grouped in rooms. Publishing never
// blocks: a client whose buffer is full is dropped.
type Hub struct {
	clients    map[*Client]bool
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
	done       chan struct{}
	logger     *logger.Logger
}

type Message struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"room_id,omitempty"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop closes every client connection and ends Run.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Register adds client and joins the rooms it was created with. It is
// synchronous so messages sent right after it reach the client.
func (h *Hub) Register(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	for roomID := range client.rooms {
		h.joinRoom(client, roomID)
	}
	h.logger.WithField("client_id", client.ID).Debug("WebSocket client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.removeClient(client)
}

// removeClient must be called with the write lock held.
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.logger.WithField("client_id", client.ID).Debug("WebSocket client unregistered")
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		h.removeClient(client)
	}
}

// PublishToRoom sends a message to every client in room.
func (h *Hub) PublishToRoom(roomID, messageType string, data map[string]interface{}) {
	h.sendToRoom(Message{
		Type:      messageType,
		RoomID:    roomID,
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	})
}

func (h *Hub) sendToRoom(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to encode websocket message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.rooms[message.RoomID] {
		select {
		case client.send <- data:
		default:
			h.removeClient(client)
		}
	}
}

func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
		h.removeClient(client)
	}
}

// joinRoom must be called with the write lock held.
func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.clients[client] {
		h.joinRoom(client, roomID)
	}
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(roomID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.rooms[roomID])
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
