package controller

import (
	"log"

	"dealdesk/models"
	"dealdesk/realtime"
	"dealdesk/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type StageController struct {
	DB     *gorm.DB
	Hub    *realtime.Hub
	Logger *log.Logger
}

func NewStageController(db *gorm.DB, hub *realtime.Hub, logger *log.Logger) *StageController {
	return &StageController{
		DB:     db,
		Hub:    hub,
		Logger: logger,
	}
}

type stageInput struct {
	Name         string `json:"name" validate:"required,max=100"`
	Division     string `json:"division" validate:"required,oneof=investment-sales commercial-leasing residential capital-advisory"`
	Color        string `json:"color" validate:"omitempty,hexcolor"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// displayOrderTaken reports whether another active stage in the division
// already occupies the given slot.
func (sc *StageController) displayOrderTaken(division models.Division, order int, excludeID uint) (bool, error) {
	var count int64
	query := sc.DB.Model(&models.Stage{}).
		Where("division = ? AND display_order = ? AND is_active = true", division, order)
	if excludeID > 0 {
		query = query.Where("id != ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetStages lists stages for a division ordered by display position.
func (sc *StageController) GetStages(c *fiber.Ctx) error {
	division := models.Division(c.Query("division"))
	if division != "" && !division.IsValid() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown division", nil)
	}

	query := sc.DB.Order("division ASC, display_order ASC")
	if division != "" {
		query = query.Where("division = ?", division)
	}
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = true")
	}

	var stages []models.Stage
	if err := query.Find(&stages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch stages", err)
	}

	return c.JSON(utils.SuccessResponse(stages))
}

// CreateStage creates a pipeline stage
func (sc *StageController) CreateStage(c *fiber.Ctx) error {
	var input stageInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	division := models.Division(input.Division)
	taken, err := sc.displayOrderTaken(division, input.DisplayOrder, 0)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check display order", err)
	}
	if taken {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Display order already in use for this division", nil)
	}

	stage := models.Stage{
		Name:         input.Name,
		Division:     division,
		DisplayOrder: input.DisplayOrder,
		IsActive:     true,
	}
	if input.Color != "" {
		stage.Color = input.Color
	}

	if err := sc.DB.Create(&stage).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create stage", err)
	}

	sc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventInsert,
		Resource: realtime.ResourceStages,
		ID:       stage.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(stage))
}

// UpdateStage renames or recolors a stage, or moves it to a free slot.
func (sc *StageController) UpdateStage(c *fiber.Ctx) error {
	stageID := c.Params("id")

	var input struct {
		Name         *string `json:"name" validate:"omitempty,max=100"`
		Color        *string `json:"color" validate:"omitempty,hexcolor"`
		DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0"`
		IsActive     *bool   `json:"is_active"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var stage models.Stage
	if err := sc.DB.First(&stage, stageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Stage not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch stage", err)
	}

	if input.DisplayOrder != nil && *input.DisplayOrder != stage.DisplayOrder {
		taken, err := sc.displayOrderTaken(stage.Division, *input.DisplayOrder, stage.ID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check display order", err)
		}
		if taken {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Display order already in use for this division", nil)
		}
		stage.DisplayOrder = *input.DisplayOrder
	}
	if input.Name != nil {
		stage.Name = *input.Name
	}
	if input.Color != nil {
		stage.Color = *input.Color
	}
	if input.IsActive != nil {
		// Reactivation is a write into the active set, so the slot must
		// be free again.
		if *input.IsActive && !stage.IsActive {
			taken, err := sc.displayOrderTaken(stage.Division, stage.DisplayOrder, stage.ID)
			if err != nil {
				return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check display order", err)
			}
			if taken {
				return utils.ErrorResponse(c, fiber.StatusConflict, "Display order already in use for this division", nil)
			}
		}
		stage.IsActive = *input.IsActive
	}

	if err := sc.DB.Save(&stage).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update stage", err)
	}

	sc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceStages,
		ID:       stage.ID,
	})

	return c.JSON(utils.SuccessResponse(stage))
}

// ReorderStages replaces the display order of a division's stages in one
// transaction. The payload is the full ordered list of stage IDs.
func (sc *StageController) ReorderStages(c *fiber.Ctx) error {
	var input struct {
		Division string `json:"division" validate:"required,oneof=investment-sales commercial-leasing residential capital-advisory"`
		StageIDs []uint `json:"stage_ids" validate:"required,min=1"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	division := models.Division(input.Division)

	var count int64
	if err := sc.DB.Model(&models.Stage{}).
		Where("division = ? AND id IN ?", division, input.StageIDs).
		Count(&count).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to verify stages", err)
	}
	if int(count) != len(input.StageIDs) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "All stage IDs must belong to the division", nil)
	}

	tx := sc.DB.Begin()
	for position, id := range input.StageIDs {
		if err := tx.Model(&models.Stage{}).Where("id = ?", id).
			Update("display_order", position).Error; err != nil {
			tx.Rollback()
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reorder stages", err)
		}
	}
	tx.Commit()

	sc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceStages,
	})

	var stages []models.Stage
	if err := sc.DB.Where("division = ?", division).
		Order("display_order ASC").Find(&stages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch stages", err)
	}

	return c.JSON(utils.SuccessResponse(stages))
}

// DeleteStage deactivates a stage. Stages with deals still in them cannot
// be removed.
func (sc *StageController) DeleteStage(c *fiber.Ctx) error {
	stageID := c.Params("id")

	var stage models.Stage
	if err := sc.DB.First(&stage, stageID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Stage not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch stage", err)
	}

	var dealCount int64
	if err := sc.DB.Model(&models.Deal{}).Where("stage_id = ?", stage.ID).Count(&dealCount).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to check stage usage", err)
	}
	if dealCount > 0 {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Stage still has deals; move them first", nil)
	}

	stage.IsActive = false
	if err := sc.DB.Save(&stage).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete stage", err)
	}

	sc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventDelete,
		Resource: realtime.ResourceStages,
		ID:       stage.ID,
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Stage deleted successfully",
	}))
}
