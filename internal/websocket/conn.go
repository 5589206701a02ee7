package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/localbase/localbase-backend/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Control frames are small subscribe/unsubscribe requests.
	maxFrameSize = 4 * 1024

	framesPerSecond = 10
	frameBurst      = 20
)

// Conn wraps the gorilla connection so tests can build clients without one.
type Conn struct {
	*websocket.Conn
}

func (c *Client) write(messageType int, data []byte) error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(messageType, data)
}

// ReadPump applies control frames from the browser until the connection
// closes, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket closed unexpectedly", map[string]interface{}{
					"address": c.Address,
					"error":   err.Error(),
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, frame)
	}
}

// WritePump forwards hub events to the browser, one event per frame, and
// pings so idle subscriptions survive proxies.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if !ok {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, event); err != nil {
				logger.Debug("WebSocket write failed", map[string]interface{}{
					"address": c.Address,
					"error":   err.Error(),
				})
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
