package handlers

import (
	"log"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type WithdrawalRequest struct {
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Method         string  `json:"method" validate:"required,oneof=mpesa bank"`
	AccountDetails string  `json:"account_details" validate:"required,min=6"`
}

func GetWallet(c *fiber.Ctx) error {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var creator models.Creator
	if err := database.DB.First(&creator, "id = ?", creatorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Creator not found"})
	}

	return c.JSON(fiber.Map{
		"balance":         creator.Balance,
		"total_earnings":  creator.TotalEarnings,
		"total_withdrawn": creator.TotalWithdrawn,
	})
}

func ListEarnings(c *fiber.Ctx) error {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var earnings []models.Earning
	if err := database.DB.Where("creator_id = ?", creatorID).Order("created_at desc").Find(&earnings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(earnings)
}

func RequestWithdrawal(c *fiber.Ctx) error {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req WithdrawalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	withdrawal, err := services.RequestWithdrawal(database.DB, creatorID, req.Amount, req.Method, req.AccountDetails)
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(withdrawal)
}

func ListWithdrawals(c *fiber.Ctx) error {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var withdrawals []models.Withdrawal
	if err := database.DB.Where("creator_id = ?", creatorID).Order("created_at desc").Find(&withdrawals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(withdrawals)
}

type DisbursementWebhookPayload struct {
	ReferenceNumber string `json:"referenceNumber"`
	TransactionID   string `json:"transactionId"`
	ResultCode      int    `json:"resultCode"`
	ResultDesc      string `json:"resultDesc"`
}

// HandleDisbursementWebhook settles a withdrawal from the payout provider's
// callback. The status CAS inside the ledger service makes replayed
// callbacks harmless.
func HandleDisbursementWebhook(c *fiber.Ctx) error {
	var payload DisbursementWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	withdrawalID, err := uuid.Parse(payload.ReferenceNumber)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reference number"})
	}

	log.Printf("Received disbursement webhook for withdrawal %s, result %d", withdrawalID, payload.ResultCode)

	if payload.ResultCode == 0 {
		txnID := payload.TransactionID
		err = services.CompleteWithdrawal(database.DB, withdrawalID, &txnID)
	} else {
		err = services.FailWithdrawal(database.DB, withdrawalID, &payload.ResultDesc)
	}
	if err != nil {
		if err == services.ErrConflict {
			return c.JSON(fiber.Map{"message": "Webhook already processed"})
		}
		log.Printf("🔥 Failed to settle withdrawal %s: %v", withdrawalID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	return c.JSON(fiber.Map{"message": "Webhook processed successfully"})
}
