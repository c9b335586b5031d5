// internal/realtime/websocket.go
package realtime

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/xin-kz910/SE-project/pkg/logger"
)

const pingInterval = 30 * time.Second

// ServeNotifications returns the websocket handler. The upgrade route must
// put the session user id in Locals("uid") first.
func ServeNotifications(hub *Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		uid, ok := c.Locals("uid").(uint)
		if !ok || uid == 0 {
			_ = c.Close()
			return
		}

		client := &Client{
			ID:     uuid.NewString(),
			UserID: uid,
			Send:   make(chan []byte, 256),
		}
		hub.RegisterClient(client)

		done := make(chan struct{})
		go writePump(c, client, done)

		// the conn goes back to fiber's pool on return, so the writer must be gone
		defer func() {
			hub.UnregisterClient(client)
			<-done
		}()

		// read until the browser goes away; clients only send pongs
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				logger.Debug().Err(err).Uint("user_id", uid).Msg("ws read ended")
				return
			}
		}
	}
}

func writePump(c *websocket.Conn, client *Client, done chan<- struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug().Err(err).Msg("ws write error")
				return
			}
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
