package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers are read-only; any origin may watch
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Client is one connected viewer: a table display, an admin panel or a
// lobby screen. Viewers are read-only; the server only pushes state.
type Client struct {
	conn   *websocket.Conn
	roomID string // "" for lobby clients
	send   chan []byte
}

func newClient(conn *websocket.Conn, roomID string) *Client {
	return &Client{
		conn:   conn,
		roomID: roomID,
		send:   make(chan []byte, 64),
	}
}

// enqueue hands a frame to the write pump, dropping it when the
// client's buffer is full. Slow viewers get the next snapshot instead.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] send buffer full for viewer in room %q, dropping frame", c.roomID)
	}
}

// writePump writes queued frames and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: the hub detached this viewer.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for viewer in room %q: %v", c.roomID, err)
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

// readPump drains the connection to keep pong handling alive and to
// notice the close. Incoming payloads are ignored.
func (c *Client) readPump(detach func(*Client)) {
	defer func() {
		detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] read error for viewer in room %q: %v", c.roomID, err)
			}
			return
		}
	}
}
