package controller

import (
	"log"
	"path/filepath"
	"strings"

	"dealdesk/utils"

	"github.com/gofiber/fiber/v2"
)

// Upload categories map to subdirectories under the upload root.
var uploadCategories = map[string]bool{
	"agreements":  true,
	"memorandums": true,
	"flyers":      true,
	"photos":      true,
	"resumes":     true,
	"contracts":   true,
	"documents":   true,
}

var allowedUploadExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

type UploadController struct {
	Logger *log.Logger
}

func NewUploadController(logger *log.Logger) *UploadController {
	return &UploadController{Logger: logger}
}

// Upload stores a document and returns its public URL. The caller then
// attaches the URL to a listing, submission or contract.
func (uc *UploadController) Upload(c *fiber.Ctx) error {
	category := c.Params("category")
	if !uploadCategories[category] {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown upload category", nil)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File upload error", err)
	}

	// Check file size (max 25MB, offering memorandums run large)
	if file.Size > 25<<20 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File too large (max 25MB)", nil)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExtensions[ext] {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported file type", nil)
	}

	url, err := utils.SaveUpload(file, category)
	if err != nil {
		uc.Logger.Printf("Upload failed: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to store file", err)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"url":      url,
		"filename": file.Filename,
		"size":     file.Size,
	}))
}
