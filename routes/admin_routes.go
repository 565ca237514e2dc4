package routes

import (
	"github.com/dmuriuki/biz_capture/handlers"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/submissions", handlers.AdminListSubmissions)
	admin.Post("/submissions/:submissionId/approve", handlers.ApproveSubmission)
	admin.Post("/submissions/:submissionId/reject", handlers.RejectSubmission)
	admin.Post("/submissions/:submissionId/website", handlers.RecordWebsite)
	admin.Post("/submissions/:submissionId/deployed", handlers.ConfirmDeployed)
	admin.Post("/submissions/:submissionId/mark-paid", handlers.MarkSubmissionPaid)
	admin.Get("/submissions/:submissionId/audit-log", handlers.GetSubmissionAuditLog)

	admin.Get("/withdrawals", handlers.AdminListWithdrawals)
	admin.Post("/withdrawals/:withdrawalId/process", handlers.ProcessWithdrawal)

	admin.Get("/creators", handlers.AdminListCreators)
	admin.Put("/creators/:creatorId/status", handlers.ToggleCreatorStatus)

	admin.Get("/overview", handlers.GetAdminOverview)
}
