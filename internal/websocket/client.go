package websocket

import (
	"encoding/json"
	"time"

	"tempnote-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// ClientMessage is an operation requested by the browser.
type ClientMessage struct {
	Type    string `json:"type"`
	Id      string `json:"id,omitempty"`
	Content string `json:"content,omitempty"`
	Token   string `json:"token,omitempty"`
}

// Client is a middleman between the websocket connection and a view.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	ID uuid.UUID

	// View names the screen this connection renders ("list" or "detail").
	View string

	// Session encodes view output into the outbound queue.
	Session *Session

	// done is closed when the write pump has stopped using Conn.
	done chan struct{}

	logger logger.ILogger
}

func newClient(hub *Hub, conn *websocket.Conn, viewName string, log logger.ILogger) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		ID:      uuid.New(),
		View:    viewName,
		Session: NewSession(sendBuffer, log),
		done:    make(chan struct{}),
		logger:  log,
	}
}

// readPump decodes client messages and hands them to handle, one at a time,
// until the connection fails or is closed.
func (c *Client) readPump(handle func(ClientMessage)) {
	defer c.Conn.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Client", "Unexpected close", map[string]interface{}{"client_id": c.ID, "error": err})
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Client", "Ignoring malformed message", map[string]interface{}{"client_id": c.ID, "error": err})
			continue
		}
		handle(msg)
	}
}

// writePump pumps frames from the session to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		close(c.done)
	}()

	send := c.Session.Outbound()
	for {
		select {
		case frame, ok := <-send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The session was closed.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One frame per message: clients parse each as a JSON document.
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("Client", "Ping failed", map[string]interface{}{"client_id": c.ID, "error": err})
				return
			}
		}
	}
}

// shutdown stops the write pump and waits for it. The connection is handed
// back to its pool once the handler returns, so nothing may touch it after.
func (c *Client) shutdown() {
	c.Session.Close()
	<-c.done
}
