package routes

import (
	"github.com/dmuriuki/biz_capture/handlers"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/gofiber/fiber/v2"
)

func RealtimeRoutes(app *fiber.App) {
	app.Use("/ws/status", middleware.Protected(), handlers.RealtimeUpgrade)
	app.Get("/ws/status", handlers.RealtimeChannel())
}
