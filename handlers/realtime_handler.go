package handlers

import (
	ws "github.com/dmuriuki/biz_capture/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// RealtimeUpgrade gates the websocket handshake behind the JWT middleware.
func RealtimeUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		token := c.Locals("user").(*jwt.Token)
		claims := token.Claims.(jwt.MapClaims)
		c.Locals("creator_id", claims["user_id"])
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// RealtimeChannel keeps the device's status channel open, registering the
// connection with the hub for lifecycle pushes.
func RealtimeChannel() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		raw, _ := conn.Locals("creator_id").(string)
		creatorID, err := uuid.Parse(raw)
		if err != nil {
			conn.Close()
			return
		}

		client := &ws.Client{CreatorID: creatorID, Conn: conn}
		ws.Register <- client
		defer func() {
			ws.Unregister <- client
		}()

		for {
			// The channel is push-only; reads just detect disconnects.
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	})
}
