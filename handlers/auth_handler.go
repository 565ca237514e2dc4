package handlers

import (
	"errors"
	"log"
	"time"

	config "github.com/dmuriuki/biz_capture/configs"
	"github.com/dmuriuki/biz_capture/database"
	"github.com/dmuriuki/biz_capture/middleware"
	"github.com/dmuriuki/biz_capture/models"
	"github.com/dmuriuki/biz_capture/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var validate = validator.New()

type RegisterRequest struct {
	FullName       string  `json:"full_name" validate:"required,min=3"`
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=6"`
	Phone          *string `json:"phone,omitempty"`
	ReferredByCode *string `json:"referred_by_code,omitempty"`
}

type CreatorResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	ReferralCode *string   `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func RegisterCreator(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	var newCreator models.Creator
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var referrer *models.Creator
		if req.ReferredByCode != nil && *req.ReferredByCode != "" {
			var candidate models.Creator
			if err := tx.Where("referral_code = ?", *req.ReferredByCode).First(&candidate).Error; err != nil {
				log.Printf("Invalid referral code used: %s", *req.ReferredByCode)
			} else {
				referrer = &candidate
			}
		}

		uniqueCode, err := utils.GenerateUniqueReferralCode(tx)
		if err != nil {
			return errors.New("failed to generate unique referral code")
		}

		newCreator = models.Creator{
			FullName:       req.FullName,
			Email:          req.Email,
			Password:       string(hashedPassword),
			Phone:          req.Phone,
			ReferralCode:   &uniqueCode,
			ReferredByCode: req.ReferredByCode,
		}
		if err := tx.Create(&newCreator).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.New("email already exists")
			}
			return err
		}

		if referrer != nil {
			referral := models.Referral{
				ReferrerID:        referrer.ID,
				ReferredCreatorID: newCreator.ID,
				Status:            models.ReferralPending,
			}
			if err := tx.Create(&referral).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if err.Error() == "email already exists" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create creator account"})
	}

	response := CreatorResponse{
		ID:           newCreator.ID.String(),
		FullName:     newCreator.FullName,
		Email:        newCreator.Email,
		Role:         newCreator.Role,
		ReferralCode: newCreator.ReferralCode,
		CreatedAt:    newCreator.CreatedAt,
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

func LoginCreator(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var creator models.Creator
	result := database.DB.Where("email = ?", req.Email).First(&creator)
	if result.Error != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	if !creator.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is deactivated"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creator.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	claims := jwt.MapClaims{
		"user_id": creator.ID.String(),
		"role":    creator.Role,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.Config("JWT_SECRET")))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign token"})
	}

	return c.JSON(fiber.Map{
		"token": signed,
		"creator": CreatorResponse{
			ID:           creator.ID.String(),
			FullName:     creator.FullName,
			Email:        creator.Email,
			Role:         creator.Role,
			ReferralCode: creator.ReferralCode,
			CreatedAt:    creator.CreatedAt,
		},
	})
}

func GetMe(c *fiber.Ctx) error {
	creatorID, err := middleware.CreatorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var creator models.Creator
	if err := database.DB.First(&creator, "id = ?", creatorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Creator not found"})
	}

	return c.JSON(creator)
}
