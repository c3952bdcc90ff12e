package controller

import (
	"fmt"
	"log"
	"strconv"

	"dealdesk/models"
	"dealdesk/realtime"
	"dealdesk/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ListingController struct {
	DB     *gorm.DB
	Hub    *realtime.Hub
	Logger *log.Logger
}

func NewListingController(db *gorm.DB, hub *realtime.Hub, logger *log.Logger) *ListingController {
	return &ListingController{
		DB:     db,
		Hub:    hub,
		Logger: logger,
	}
}

type listingInput struct {
	PropertyAddress string              `json:"property_address" validate:"required,max=300"`
	Division        string              `json:"division" validate:"required,oneof=investment-sales commercial-leasing residential capital-advisory"`
	Title           string              `json:"title" validate:"required,max=200"`
	Description     string              `json:"description"`
	AskingPrice     *float64            `json:"asking_price" validate:"omitempty,gte=0"`
	Data            models.DivisionData `json:"data"`
}

// GetListings returns listings with pagination
func (lc *ListingController) GetListings(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := lc.DB.Model(&models.Listing{}).Preload("ListingAgents.User")
	if division := c.Query("division"); division != "" {
		query = query.Where("division = ?", division)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count listings", err)
	}

	var listings []models.Listing
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&listings).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listings", err)
	}

	return c.JSON(utils.PaginatedResponse(listings, page, limit, total))
}

// GetListing returns a single listing by ID
func (lc *ListingController) GetListing(c *fiber.Ctx) error {
	var listing models.Listing
	if err := lc.DB.Preload("ListingAgents.User").First(&listing, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Listing not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	return c.JSON(utils.SuccessResponse(listing))
}

// CreateListing creates a new listing
func (lc *ListingController) CreateListing(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input listingInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	division := models.Division(input.Division)
	if err := input.Data.Validate(division); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid division data", err)
	}

	listing := models.Listing{
		PropertyAddress: input.PropertyAddress,
		Division:        division,
		Title:           input.Title,
		Description:     input.Description,
		AskingPrice:     input.AskingPrice,
		Status:          "active",
		Data:            input.Data,
		PhotoURLs:       []string{},
	}

	tx := lc.DB.Begin()
	if err := tx.Create(&listing).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create listing", err)
	}

	// The creator is the listing agent by default.
	agent := models.ListingAgent{
		ListingID: listing.ID,
		UserID:    user.ID,
		Role:      "listing_agent",
	}
	if err := tx.Create(&agent).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to assign listing agent", err)
	}
	tx.Commit()

	lc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventInsert,
		Resource: realtime.ResourceListings,
		ID:       listing.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(listing))
}

// UpdateListing updates listing fields
func (lc *ListingController) UpdateListing(c *fiber.Ctx) error {
	var input struct {
		Title                 *string              `json:"title" validate:"omitempty,max=200"`
		Description           *string              `json:"description"`
		AskingPrice           *float64             `json:"asking_price" validate:"omitempty,gte=0"`
		Status                *string              `json:"status" validate:"omitempty,oneof=active under_contract closed withdrawn"`
		Data                  *models.DivisionData `json:"data"`
		OfferingMemorandumURL *string              `json:"offering_memorandum_url" validate:"omitempty,url"`
		FlyerURL              *string              `json:"flyer_url" validate:"omitempty,url"`
		PhotoURLs             *[]string            `json:"photo_urls"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var listing models.Listing
	if err := lc.DB.First(&listing, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Listing not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	if input.Title != nil {
		listing.Title = *input.Title
	}
	if input.Description != nil {
		listing.Description = *input.Description
	}
	if input.AskingPrice != nil {
		listing.AskingPrice = input.AskingPrice
	}
	if input.Status != nil {
		listing.Status = *input.Status
	}
	if input.Data != nil {
		if err := input.Data.Validate(listing.Division); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid division data", err)
		}
		listing.Data = *input.Data
	}
	if input.OfferingMemorandumURL != nil {
		listing.OfferingMemorandumURL = input.OfferingMemorandumURL
	}
	if input.FlyerURL != nil {
		listing.FlyerURL = input.FlyerURL
	}
	if input.PhotoURLs != nil {
		listing.PhotoURLs = *input.PhotoURLs
	}

	if err := lc.DB.Save(&listing).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update listing", err)
	}

	lc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceListings,
		ID:       listing.ID,
	})

	return c.JSON(utils.SuccessResponse(listing))
}

// AssignAgent adds an agent to a listing and notifies them.
func (lc *ListingController) AssignAgent(c *fiber.Ctx) error {
	var input struct {
		UserID uint   `json:"user_id" validate:"required"`
		Role   string `json:"role" validate:"omitempty,oneof=listing_agent co_broker"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var listing models.Listing
	if err := lc.DB.First(&listing, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Listing not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	var agentUser models.User
	if err := lc.DB.First(&agentUser, input.UserID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Agent not found", err)
	}

	var existing int64
	lc.DB.Model(&models.ListingAgent{}).
		Where("listing_id = ? AND user_id = ?", listing.ID, input.UserID).
		Count(&existing)
	if existing > 0 {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Agent already assigned to listing", nil)
	}

	role := input.Role
	if role == "" {
		role = "listing_agent"
	}

	tx := lc.DB.Begin()
	agent := models.ListingAgent{
		ListingID: listing.ID,
		UserID:    input.UserID,
		Role:      role,
	}
	if err := tx.Create(&agent).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to assign agent", err)
	}

	notification := models.Notification{
		UserID:  input.UserID,
		Type:    models.NotificationListingAssigned,
		Title:   "New listing assignment",
		Message: fmt.Sprintf("You were assigned to %s", listing.Title),
		ActionURL: utils.Pointer(
			fmt.Sprintf("/listings/%d", listing.ID),
		),
		Data: map[string]string{
			"listing_id": strconv.FormatUint(uint64(listing.ID), 10),
		},
	}
	if err := tx.Create(&notification).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create notification", err)
	}
	tx.Commit()

	lc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceListings,
		ID:       listing.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(agent))
}

// RemoveAgent removes an agent from a listing
func (lc *ListingController) RemoveAgent(c *fiber.Ctx) error {
	result := lc.DB.Where("listing_id = ? AND user_id = ?", c.Params("id"), c.Params("userId")).
		Delete(&models.ListingAgent{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to remove agent", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Assignment not found", nil)
	}

	lc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceListings,
		ID:       utils.ParseUint(c.Params("id")),
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Agent removed from listing",
	}))
}

// DeleteListing withdraws a listing
func (lc *ListingController) DeleteListing(c *fiber.Ctx) error {
	var listing models.Listing
	if err := lc.DB.First(&listing, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Listing not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch listing", err)
	}

	listing.Status = "withdrawn"
	if err := lc.DB.Save(&listing).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to withdraw listing", err)
	}

	lc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventDelete,
		Resource: realtime.ResourceListings,
		ID:       listing.ID,
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Listing withdrawn",
	}))
}
