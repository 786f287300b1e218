package ws

import (
	"log"
	"time"

	"github.com/Vasu1712/scenyx-studio/internal/models"
	"github.com/gorilla/websocket"
)

// Settings tune the per-connection pumps.
type Settings struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

// DefaultSettings match the keepalive timings used by the server unless
// configured otherwise.
var DefaultSettings = Settings{
	SendBuffer:     256,
	WriteWait:      10 * time.Second,
	PongWait:       60 * time.Second,
	MaxMessageSize: 64 * 1024,
}

// withDefaults fills zero fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	if s.SendBuffer <= 0 {
		s.SendBuffer = DefaultSettings.SendBuffer
	}
	if s.WriteWait <= 0 {
		s.WriteWait = DefaultSettings.WriteWait
	}
	if s.PongWait <= 0 {
		s.PongWait = DefaultSettings.PongWait
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = DefaultSettings.MaxMessageSize
	}
	return s
}

func (s Settings) pingPeriod() time.Duration {
	return s.PongWait * 9 / 10
}

// Client is one live WebSocket connection. User is set when the connection
// authenticated with a session token; it then overrides the identity
// carried by join-song.
type Client struct {
	ID   string
	User *models.User
	Send chan []byte

	conn     *websocket.Conn
	settings Settings
}

// NewClient wraps an upgraded connection.
func NewClient(id string, conn *websocket.Conn, settings Settings) *Client {
	settings = settings.withDefaults()
	return &Client{
		ID:       id,
		Send:     make(chan []byte, settings.SendBuffer),
		conn:     conn,
		settings: settings,
	}
}

// ReadPump feeds inbound frames to the hub until the connection fails.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.settings.PongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Client %s read error: %v", c.ID, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			log.Printf("[WS] Client %s sent non-text frame, ignoring", c.ID)
			continue
		}
		h.Receive(c, message)
	}
}

// WritePump drains Send onto the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.settings.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.settings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
