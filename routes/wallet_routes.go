package routes

import (
	"github.com/dmuriuki/biz_capture/handlers"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/gofiber/fiber/v2"
)

func WalletRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/wallet/webhook", handlers.HandleDisbursementWebhook)

	wallet := api.Group("/wallet", middleware.Protected())
	wallet.Get("", handlers.GetWallet)
	wallet.Get("/earnings", handlers.ListEarnings)
	wallet.Get("/withdrawals", handlers.ListWithdrawals)
	wallet.Post("/withdrawals", handlers.RequestWithdrawal)
}
