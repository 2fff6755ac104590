// handlers/ws.go - Realtime sync endpoint
package handlers

import (
	"strconv"

	"bughunt/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterWebSocket mounts the (team, round) sync channel.
// GET /ws/game/:teamId/:roundNumber
func RegisterWebSocket(app *fiber.App, h *realtime.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/game/:teamId/:roundNumber", websocket.New(func(conn *websocket.Conn) {
		teamID, err := strconv.ParseUint(conn.Params("teamId"), 10, 32)
		if err != nil {
			conn.Close()
			return
		}
		roundNumber, err := strconv.Atoi(conn.Params("roundNumber"))
		if err != nil {
			conn.Close()
			return
		}

		username := conn.Query("username")

		client := h.Join(uint(teamID), roundNumber, conn, username)
		defer h.Leave(client)

		client.ReadLoop()
	}))
}
