package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The board has no authentication; any origin may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Register wires the board endpoints on the provided Echo instance.
func Register(e *echo.Echo, hub *Hub, logger *log.Logger) {
	e.GET("/ws", serveWS(hub, logger))
	e.GET("/healthz", healthz(hub))
}

// serveWS upgrades the request and starts the client pumps. The connection
// is registered before the read pump runs so presence exists prior to any
// message from the client.
func serveWS(hub *Hub, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			logger.Debugf("upgrade: %v", err)
			return nil
		}
		client := newClient(hub, conn)
		hub.Register(client)
		go client.writePump()
		go client.readPump(logger)
		return nil
	}
}

func healthz(hub *Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":      "ok",
			"connections": hub.ClientCount(),
		})
	}
}
