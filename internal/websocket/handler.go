package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeThread attaches an upgraded connection to threadID and blocks until
// it closes.
func ServeThread(hub *Hub, advancer Advancer, c *websocket.Conn, threadID string) {
	client := newClient(hub, c, threadID)
	if !hub.Register(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump(advancer)
}
