package routes

import (
	"github.com/dmuriuki/biz_capture/handlers"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/gofiber/fiber/v2"
)

func SubmissionRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	subs := api.Group("/submissions", middleware.Protected())
	subs.Post("", handlers.CreateSubmission)
	subs.Get("", handlers.ListMySubmissions)
	subs.Get("/:submissionId", handlers.GetSubmission)
	subs.Patch("/:submissionId", handlers.PatchSubmissionInfo)
	subs.Post("/:submissionId/photos", handlers.AttachPhotos)
	subs.Post("/:submissionId/interview", handlers.AttachInterview)
	subs.Post("/:submissionId/submit", handlers.SubmitSubmission)
}
