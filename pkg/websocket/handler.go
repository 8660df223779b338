package websocket

import (
	"net/http"
	"time"

	"busledger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingInterval    time.Duration
	PongTimeout     time.Duration
	AllowedOrigins  []string
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   Config
	logger   *logger.Logger
}

func NewHandler(cfg Config, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	hub := NewHub(log)
	go hub.Run()

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		config: cfg,
		logger: log,
	}
}

// Subscribe upgrades the request and puts the connection in room. The
// room name comes from the caller; see HandleRoom for the gin adapter.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request, room string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(h.hub, conn, uuid.NewString(), room)
	if h.config.PingInterval > 0 {
		client.pingPeriod = h.config.PingInterval
	}
	if h.config.PongTimeout > 0 {
		client.pongWait = h.config.PongTimeout
	}
	h.hub.Register(client)
	h.hub.sendToClient(client, Message{Type: "subscribed", RoomID: room, Timestamp: getCurrentTimestamp()})

	go client.writePump()
	go client.readPump()
	return nil
}

// HandleRoom returns a gin handler subscribing the caller to the room
// derived from the request. A room func returning "" rejects the request.
func (h *Handler) HandleRoom(room func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := room(c)
		if name == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid room"})
			return
		}
		if err := h.Subscribe(c.Writer, c.Request, name); err != nil {
			h.logger.WithError(err).Warn("WebSocket upgrade failed")
		}
	}
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}

func (h *Handler) Close() {
	h.hub.Stop()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
