package handlers

import (
	"errors"

	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionInfoRequest struct {
	BusinessName string  `json:"business_name" validate:"required,min=2"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Location     *string `json:"location,omitempty"`
	OwnerName    *string `json:"owner_name,omitempty"`
	OwnerPhone   *string `json:"owner_phone,omitempty"`
}

type AttachPhotosRequest struct {
	StorageKeys []string `json:"storage_keys" validate:"required,min=1,dive,required"`
}

type AttachInterviewRequest struct {
	Kind     string  `json:"kind" validate:"required,oneof=video audio"`
	VideoKey *string `json:"video_key,omitempty"`
	AudioKey *string `json:"audio_key,omitempty"`
}

// loadOwnSubmission fetches a submission and verifies the caller owns it.
func loadOwnSubmission(c *fiber.Ctx) (*models.Submission, error) {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	submissionID, err := uuid.Parse(c.Params("submissionId"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid submission ID format"})
	}

	var sub models.Submission
	if err := database.DB.First(&sub, "id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Submission not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	if sub.CreatorID != creatorID {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your submission"})
	}

	return &sub, nil
}

// editable reports whether the submission still accepts direct field writes.
// Past draft/rejected, every change goes through a named transition.
func editable(status string) bool {
	return status == models.StatusDraft || status == models.StatusRejected
}

func CreateSubmission(c *fiber.Ctx) error {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req SubmissionInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sub := models.Submission{
		CreatorID:    creatorID,
		BusinessName: req.BusinessName,
		Description:  req.Description,
		Category:     req.Category,
		Location:     req.Location,
		OwnerName:    req.OwnerName,
		OwnerPhone:   req.OwnerPhone,
		Status:       models.StatusDraft,
	}
	if err := database.DB.Create(&sub).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create submission"})
	}

	return c.Status(fiber.StatusCreated).JSON(sub)
}

func PatchSubmissionInfo(c *fiber.Ctx) error {
	sub, ferr := loadOwnSubmission(c)
	if sub == nil {
		return ferr
	}
	if !editable(sub.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Submission is already in review and cannot be edited"})
	}

	var req SubmissionInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	sub.BusinessName = req.BusinessName
	sub.Description = req.Description
	sub.Category = req.Category
	sub.Location = req.Location
	sub.OwnerName = req.OwnerName
	sub.OwnerPhone = req.OwnerPhone
	if err := database.DB.Save(sub).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update submission"})
	}

	return c.JSON(sub)
}

func AttachPhotos(c *fiber.Ctx) error {
	sub, ferr := loadOwnSubmission(c)
	if sub == nil {
		return ferr
	}
	if !editable(sub.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Submission is already in review and cannot be edited"})
	}

	var req AttachPhotosRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing []models.SubmissionPhoto
		if err := tx.Where("submission_id = ?", sub.ID).Order("position asc").Find(&existing).Error; err != nil {
			return err
		}

		seen := make(map[string]bool, len(existing))
		position := 0
		for _, p := range existing {
			seen[p.StorageKey] = true
			if p.Position >= position {
				position = p.Position + 1
			}
		}

		for _, key := range req.StorageKeys {
			// Re-attaching an already recorded key is a no-op so the sync
			// reconciler can safely resend its full uploaded-key list.
			if seen[key] {
				continue
			}
			photo := models.SubmissionPhoto{
				SubmissionID: sub.ID,
				StorageKey:   key,
				Position:     position,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
			seen[key] = true
			position++
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to attach photos"})
	}

	var photos []models.SubmissionPhoto
	database.DB.Where("submission_id = ?", sub.ID).Order("position asc").Find(&photos)
	return c.JSON(fiber.Map{"submission_id": sub.ID, "photos": photos})
}

func AttachInterview(c *fiber.Ctx) error {
	sub, ferr := loadOwnSubmission(c)
	if sub == nil {
		return ferr
	}
	if !editable(sub.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Submission is already in review and cannot be edited"})
	}

	var req AttachInterviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var payout float64
	switch req.Kind {
	case models.InterviewKindVideo:
		if req.VideoKey == nil || *req.VideoKey == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "video_key is required for a video interview"})
		}
		payout = services.VideoPayoutAmount
	case models.InterviewKindAudio:
		if req.AudioKey == nil || *req.AudioKey == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "audio_key is required for an audio interview"})
		}
		payout = services.AudioPayoutAmount
	}

	sub.InterviewKind = &req.Kind
	sub.InterviewVideoKey = req.VideoKey
	sub.InterviewAudioKey = req.AudioKey
	sub.PayoutAmount = payout
	sub.TranscriptStatus = models.TranscriptPending
	if err := database.DB.Save(sub).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to attach interview"})
	}

	go services.RequestTranscript(sub.ID)

	return c.JSON(sub)
}

func SubmitSubmission(c *fiber.Ctx) error {
	sub, ferr := loadOwnSubmission(c)
	if sub == nil {
		return ferr
	}

	creatorID, _ := middleware.CreatorID(c)
	updated, err := services.Submit(database.DB, sub.ID, creatorID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(updated)
}

func GetSubmission(c *fiber.Ctx) error {
	sub, ferr := loadOwnSubmission(c)
	if sub == nil {
		return ferr
	}

	var full models.Submission
	if err := database.DB.Preload("Photos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&full, "id = ?", sub.ID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(full)
}

func ListMySubmissions(c *fiber.Ctx) error {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var subs []models.Submission
	if err := database.DB.Preload("Photos").
		Where("creator_id = ?", creatorID).
		Order("created_at desc").
		Find(&subs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(subs)
}
