package handlers

import (
	"time"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/services"
	"github.com/gofiber/fiber/v2"
)

// GetMyDashboard returns the creator's current daily bucket and the most
// recent monthly buckets. The monthly figures trail by up to a day since
// they only exist via the nightly rollup.
func GetMyDashboard(c *fiber.Ctx) error {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	today := time.Now().Format(services.DailyKeyFormat)

	var daily models.AnalyticsBucket
	database.DB.Where("creator_id = ? AND period_key = ?", creatorID, today).First(&daily)

	var monthly []models.AnalyticsBucket
	if err := database.DB.
		Where("creator_id = ? AND length(period_key) = 7", creatorID).
		Order("period_key desc").
		Limit(12).
		Find(&monthly).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{
		"today":   daily,
		"monthly": monthly,
	})
}

func GetAdminOverview(c *fiber.Ctx) error {
	var totalCreators, totalSubmissions, pendingReview, paidOut int64
	database.DB.Model(&models.Creator{}).Count(&totalCreators)
	database.DB.Model(&models.Submission{}).Count(&totalSubmissions)
	database.DB.Model(&models.Submission{}).Where("status = ?", models.StatusSubmitted).Count(&pendingReview)
	database.DB.Model(&models.Submission{}).Where("status = ?", models.StatusPaid).Count(&paidOut)

	var totalEarnings float64
	database.DB.Model(&models.Earning{}).Select("COALESCE(SUM(amount), 0)").Scan(&totalEarnings)

	return c.JSON(fiber.Map{
		"total_creators":    totalCreators,
		"total_submissions": totalSubmissions,
		"pending_review":    pendingReview,
		"paid_out":          paidOut,
		"total_earnings":    totalEarnings,
	})
}
