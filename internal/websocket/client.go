package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/pkg/serverutils"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Frames may carry an uploaded metadata file.
	maxMessageSize = 4 << 20
	sendBuffer     = 256
	advanceTimeout = 2 * time.Minute
)

// Frame is what the server writes to a thread socket.
type Frame struct {
	Type string      `json:"type"` // "advance", "event" or "error"
	Data interface{} `json:"data"`
}

// Advancer runs one thread step; the thread service implements it.
type Advancer interface {
	Advance(ctx context.Context, id uuid.UUID, req *dto.AdvanceThreadRequest) (*dto.ThreadResponse, error)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn

	// ThreadID is the conversation this connection drives and watches.
	ThreadID string

	// Buffered channel of outbound messages.
	Send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, threadID string) *Client {
	return &Client{Hub: hub, Conn: conn, ThreadID: threadID, Send: make(chan []byte, sendBuffer)}
}

// offer queues data without blocking. It reports false when the buffer is
// full; a closed client silently drops data.
func (c *Client) offer(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) reply(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.offer(data)
}

// handleFrame advances the thread with one inbound frame. Results go to
// every watcher of the thread, errors only to the sender.
func (c *Client) handleFrame(ctx context.Context, advancer Advancer, raw []byte) {
	var req dto.AdvanceThreadRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.reply(Frame{Type: "error", Data: serverutils.ErrorResponse(400, "Frame is not a JSON advance request")})
		return
	}
	id, err := uuid.Parse(c.ThreadID)
	if err != nil {
		c.reply(Frame{Type: "error", Data: serverutils.ErrorResponse(400, "Invalid thread id")})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, advanceTimeout)
	defer cancel()
	res, err := advancer.Advance(ctx, id, &req)
	if err != nil {
		_, body := serverutils.MapError(err)
		c.reply(Frame{Type: "error", Data: body})
		return
	}
	c.Hub.Send(c.ThreadID, Frame{Type: "advance", Data: res})
}

// readPump reads advance frames until the connection drops.
func (c *Client) readPump(advancer Advancer) {
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
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"thread_id": c.ThreadID,
					"error":     err.Error(),
				})
			}
			return
		}
		c.handleFrame(context.Background(), advancer, raw)
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
			// One frame per message; clients parse each as JSON.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Hub.logger.Debug("Client", "Ping failed", map[string]interface{}{
					"thread_id": c.ThreadID,
					"error":     err.Error(),
				})
				return
			}
		}
	}
}
