package routes

import (
	"github.com/dmuriuki/biz_capture/handlers"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/auth/register", handlers.RegisterCreator)
	api.Post("/auth/login", handlers.LoginCreator)
	api.Get("/auth/me", middleware.Protected(), handlers.GetMe)
}
