package handlers

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	config "github.com/dmuriuki/biz_capture/configs"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UploadTargetRequest struct {
	Folder      string `json:"folder" validate:"required,oneof=business_photos interviews"`
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

// RequestUploadTarget signs a one-time direct upload for the device. The
// returned storage key is what the rest of the system passes around; the raw
// bytes never travel through this API.
func RequestUploadTarget(c *fiber.Ctx) error {
	var req UploadTargetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cloudinaryURL := config.Config("CLOUDINARY_URL")
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to initialize Cloudinary"})
	}

	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to parse Cloudinary URL"})
	}
	secret, _ := parsedURL.User.Password()

	base := strings.TrimSuffix(path.Base(req.Filename), path.Ext(req.Filename))
	publicID := fmt.Sprintf("%s-%s", base, uuid.New().String()[:8])
	storageKey := req.Folder + "/" + publicID

	paramsToSign, err := api.StructToParams(uploader.UploadParams{
		Folder:   req.Folder,
		PublicID: publicID,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to prepare signature params"})
	}

	timestamp := time.Now().Unix()
	paramsToSign.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err := api.SignParameters(paramsToSign, secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign upload params"})
	}

	uploadURL := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", cld.Config.Cloud.CloudName)

	return c.JSON(fiber.Map{
		"upload_url":  uploadURL,
		"storage_key": storageKey,
		"signature":   signature,
		"timestamp":   timestamp,
		"api_key":     cld.Config.Cloud.APIKey,
		"folder":      req.Folder,
		"public_id":   publicID,
	})
}
