package ws

import (
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Handler upgrades the request and attaches the connection to the hub.
func Handler(hub *Hub, logger *log.Logger) fiber.Handler {
	return adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			if logger != nil {
				logger.Printf("[WS] upgrade failed | err=%v", err)
			}
			return
		}

		c := newClient(hub, conn)
		if !hub.add(c) {
			conn.Close()
			return
		}

		go c.writePump()
		go c.readPump()
	})
}
