package server

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/zjx20/seabattlehub/internal/room"
)

// Conn is the part of *websocket.Conn the pumps use.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one connected player. Fields other than ID and conn belong to
// the server's event loop.
type Client struct {
	ID   string
	conn Conn
	send chan []byte

	// room stays set after the match finishes so late actions can be rejected.
	room   *room.Room
	closed bool
}

func newClient(id string, conn Conn, queue int) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, queue),
	}
}

// enqueue hands a frame to the write pump without blocking.
func (c *Client) enqueue(data []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close stops the write pump, which then closes the connection.
func (c *Client) close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump feeds inbound frames to the event loop until the connection fails.
func (s *Server) readPump(c *Client) {
	ws := s.cfg.WebSocket
	c.conn.SetReadLimit(ws.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ws.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info("client read failed", "client_id", c.ID, "error", err)
			}
			if !s.submit(event{kind: eventDisconnect, client: c}) {
				_ = c.conn.Close()
			}
			return
		}
		if !s.submit(event{kind: eventMessage, client: c, data: data}) {
			_ = c.conn.Close()
			return
		}
	}
}

// writePump drains the client's send queue and keeps the connection alive with pings.
func (s *Server) writePump(c *Client) {
	ws := s.cfg.WebSocket
	ticker := time.NewTicker(ws.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ws.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Info("client write failed", "client_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(ws.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
