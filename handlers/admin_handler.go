package handlers

import (
	"log"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/payments"
	"github.com/dmuriuki/biz_capture/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// adminAndSubmissionIDs pulls the acting admin and target submission ids out
// of the request, writing the error response itself when either is bad.
func adminAndSubmissionIDs(c *fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	adminID, err := middleware.CreatorID(c)
	if err != nil {
		c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return uuid.Nil, uuid.Nil, false
	}
	submissionID, err := uuid.Parse(c.Params("submissionId"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid submission ID format"})
		return uuid.Nil, uuid.Nil, false
	}
	return adminID, submissionID, true
}

func AdminListSubmissions(c *fiber.Ctx) error {
	query := database.DB.Preload("Photos").Preload("Creator").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var subs []models.Submission
	if err := query.Find(&subs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(subs)
}

func ApproveSubmission(c *fiber.Ctx) error {
	adminID, submissionID, ok := adminAndSubmissionIDs(c)
	if !ok {
		return nil
	}

	sub, err := services.Approve(database.DB, submissionID, adminID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(sub)
}

func RejectSubmission(c *fiber.Ctx) error {
	adminID, submissionID, ok := adminAndSubmissionIDs(c)
	if !ok {
		return nil
	}

	type RejectRequest struct {
		Reason *string `json:"reason,omitempty"`
	}
	var req RejectRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	sub, err := services.Reject(database.DB, submissionID, adminID, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(sub)
}

func RecordWebsite(c *fiber.Ctx) error {
	adminID, submissionID, ok := adminAndSubmissionIDs(c)
	if !ok {
		return nil
	}

	type WebsiteRequest struct {
		WebsiteURL string `json:"website_url" validate:"required,url"`
	}
	var req WebsiteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sub, err := services.RecordWebsite(database.DB, submissionID, adminID, req.WebsiteURL)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(sub)
}

func ConfirmDeployed(c *fiber.Ctx) error {
	adminID, submissionID, ok := adminAndSubmissionIDs(c)
	if !ok {
		return nil
	}

	sub, err := services.ConfirmDeployed(database.DB, submissionID, adminID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(sub)
}

func MarkSubmissionPaid(c *fiber.Ctx) error {
	adminID, submissionID, ok := adminAndSubmissionIDs(c)
	if !ok {
		return nil
	}

	sub, err := services.MarkPaid(database.DB, submissionID, adminID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(sub)
}

func GetSubmissionAuditLog(c *fiber.Ctx) error {
	submissionID, err := uuid.Parse(c.Params("submissionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid submission ID format"})
	}

	var entries []models.AuditLog
	if err := database.DB.Where("submission_id = ?", submissionID).Order("created_at asc").Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(entries)
}

func AdminListWithdrawals(c *fiber.Ctx) error {
	query := database.DB.Preload("Creator").Order("created_at desc")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var withdrawals []models.Withdrawal
	if err := query.Find(&withdrawals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(withdrawals)
}

// ProcessWithdrawal claims a pending withdrawal and asks the payout provider
// to disburse it. The provider's webhook settles the final status; an
// immediate provider rejection releases the reserved amount right away.
func ProcessWithdrawal(c *fiber.Ctx) error {
	withdrawalID, err := uuid.Parse(c.Params("withdrawalId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid withdrawal ID format"})
	}

	withdrawal, err := services.MarkWithdrawalProcessing(database.DB, withdrawalID)
	if err != nil {
		return serviceError(c, err)
	}

	if _, err := payments.InitiateDisbursement(withdrawal); err != nil {
		log.Printf("🔥 Disbursement for withdrawal %s failed: %v", withdrawal.ID, err)
		reason := err.Error()
		if ferr := services.FailWithdrawal(database.DB, withdrawal.ID, &reason); ferr != nil {
			log.Printf("🔥 Failed to release withdrawal %s after disbursement error: %v", withdrawal.ID, ferr)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Disbursement failed, amount returned to balance"})
	}

	return c.JSON(fiber.Map{"message": "Disbursement initiated", "withdrawal_id": withdrawal.ID})
}

func AdminListCreators(c *fiber.Ctx) error {
	var creators []models.Creator
	if err := database.DB.Order("created_at desc").Find(&creators).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(creators)
}

// ToggleCreatorStatus deactivates or reactivates an account. Creators are
// never deleted; their ledger history must survive them.
func ToggleCreatorStatus(c *fiber.Ctx) error {
	creatorID, err := uuid.Parse(c.Params("creatorId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid creator ID format"})
	}

	var creator models.Creator
	if err := database.DB.First(&creator, "id = ?", creatorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Creator not found"})
	}

	creator.IsActive = !creator.IsActive
	if err := database.DB.Save(&creator).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update creator"})
	}

	return c.JSON(fiber.Map{"id": creator.ID, "is_active": creator.IsActive})
}
