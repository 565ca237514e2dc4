package routes

import (
	"github.com/dmuriuki/biz_capture/handlers"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/gofiber/fiber/v2"
)

func AnalyticsRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/analytics/dashboard", middleware.Protected(), handlers.GetMyDashboard)
}
