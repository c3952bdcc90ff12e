package controller

import (
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"dealdesk/models"
	"dealdesk/pipeline"
	"dealdesk/realtime"
	"dealdesk/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DealController struct {
	DB     *gorm.DB
	Hub    *realtime.Hub
	Logger *log.Logger
}

func NewDealController(db *gorm.DB, hub *realtime.Hub, logger *log.Logger) *DealController {
	return &DealController{
		DB:     db,
		Hub:    hub,
		Logger: logger,
	}
}

type dealInput struct {
	PropertyAddress string              `json:"property_address" validate:"required,max=300"`
	Division        string              `json:"division" validate:"required,oneof=investment-sales commercial-leasing residential capital-advisory"`
	StageID         uint                `json:"stage_id" validate:"required"`
	Value           *float64            `json:"value" validate:"omitempty,gte=0"`
	Probability     *int                `json:"probability" validate:"omitempty,gte=0,lte=100"`
	Priority        string              `json:"priority" validate:"omitempty,oneof=high medium low"`
	ExpectedClose   *time.Time          `json:"expected_close"`
	DealType        string              `json:"deal_type" validate:"omitempty,max=50"`
	PropertyType    string              `json:"property_type" validate:"omitempty,max=50"`
	Notes           string              `json:"notes"`
	ContactID       *uint               `json:"contact_id"`
	Data            models.DivisionData `json:"data"`
}

// validateStageDivision enforces the core invariant: a deal's stage must
// belong to the deal's division.
func (dc *DealController) validateStageDivision(stageID uint, division models.Division) (*models.Stage, error) {
	var stage models.Stage
	if err := dc.DB.First(&stage, stageID).Error; err != nil {
		return nil, fmt.Errorf("stage not found")
	}
	if stage.Division != division {
		return nil, fmt.Errorf("stage %q belongs to division %q, not %q", stage.Name, stage.Division, division)
	}
	return &stage, nil
}

// CreateDeal creates a new deal with validation
func (dc *DealController) CreateDeal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input dealInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	division := models.Division(input.Division)
	if _, err := dc.validateStageDivision(input.StageID, division); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid stage for division", err)
	}
	if err := input.Data.Validate(division); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid division data", err)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	deal := models.Deal{
		UserID:          user.ID,
		ContactID:       input.ContactID,
		PropertyAddress: input.PropertyAddress,
		Division:        division,
		StageID:         input.StageID,
		Value:           input.Value,
		Probability:     input.Probability,
		Priority:        priority,
		ExpectedClose:   input.ExpectedClose,
		DealType:        input.DealType,
		PropertyType:    input.PropertyType,
		Notes:           input.Notes,
		Data:            input.Data,
	}

	if err := dc.DB.Create(&deal).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create deal", err)
	}

	activity := models.DealActivity{
		DealID:       deal.ID,
		UserID:       user.ID,
		ActivityType: "created",
		ToStageID:    &deal.StageID,
		ActivityAt:   time.Now(),
	}
	if err := dc.DB.Create(&activity).Error; err != nil {
		dc.Logger.Printf("Failed to record deal activity: %v", err)
	}

	dc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventInsert,
		Resource: realtime.ResourceDeals,
		ID:       deal.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(deal))
}

// parseFilterSpec maps list query parameters onto the pipeline filter.
func parseFilterSpec(c *fiber.Ctx) pipeline.FilterSpec {
	var spec pipeline.FilterSpec

	if raw := c.Query("stage_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id := utils.ParseUint(part); id > 0 {
				spec.StageIDs = append(spec.StageIDs, id)
			}
		}
	}
	if raw := c.Query("priorities"); raw != "" {
		spec.Priorities = strings.Split(raw, ",")
	}
	if raw := c.Query("value_min"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			spec.ValueMin = &v
		}
	}
	if raw := c.Query("value_max"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			spec.ValueMax = &v
		}
	}
	if raw := c.Query("cap_rate_min"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			spec.CapRateMin = &v
		}
	}
	if raw := c.Query("cap_rate_max"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			spec.CapRateMax = &v
		}
	}
	if raw := c.Query("close_after"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			spec.CloseAfter = &t
		}
	}
	if raw := c.Query("close_before"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			spec.CloseBefore = &t
		}
	}
	if raw := c.Query("property_types"); raw != "" {
		spec.PropertyTypes = strings.Split(raw, ",")
	}
	if raw := c.Query("deal_types"); raw != "" {
		spec.DealTypes = strings.Split(raw, ",")
	}
	spec.Search = c.Query("search")

	return spec
}

// GetDeals returns the filtered, sorted deal list for a division. The
// division's deals are loaded once and shaped in memory by the pipeline
// engine; active pipelines are small enough that this beats building a
// dynamic SQL query per filter combination.
func (dc *DealController) GetDeals(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	division := models.Division(c.Query("division"))
	if division != "" && !division.IsValid() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Unknown division", nil)
	}

	query := dc.DB.Preload("Stage").Preload("Contact").Where("user_id = ?", user.ID)
	if division != "" {
		query = query.Where("division = ?", division)
	}

	var deals []models.Deal
	if err := query.Find(&deals).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deals", err)
	}

	sortKey := c.Query("sort", "created_at")
	dir := pipeline.SortDirection(c.Query("dir", "desc"))
	if dir != pipeline.SortAsc && dir != pipeline.SortDesc {
		dir = pipeline.SortDesc
	}

	filtered := pipeline.Apply(deals, parseFilterSpec(c), sortKey, dir)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"deals": filtered,
		"total": len(filtered),
	}))
}

// GetDeal returns a single deal by ID
func (dc *DealController) GetDeal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	dealID := c.Params("id")

	var deal models.Deal
	if err := dc.DB.Preload("Stage").Preload("Contact").Preload("Activities").
		Where("id = ? AND user_id = ?", dealID, user.ID).First(&deal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Deal not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deal", err)
	}

	return c.JSON(utils.SuccessResponse(deal))
}

// UpdateDeal updates deal fields. Stage changes go through ChangeStage so
// the division invariant and the activity trail stay intact.
func (dc *DealController) UpdateDeal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	dealID := c.Params("id")

	var input struct {
		PropertyAddress *string              `json:"property_address" validate:"omitempty,max=300"`
		Value           *float64             `json:"value" validate:"omitempty,gte=0"`
		Probability     *int                 `json:"probability" validate:"omitempty,gte=0,lte=100"`
		Priority        *string              `json:"priority" validate:"omitempty,oneof=high medium low"`
		ExpectedClose   *time.Time           `json:"expected_close"`
		DealType        *string              `json:"deal_type" validate:"omitempty,max=50"`
		PropertyType    *string              `json:"property_type" validate:"omitempty,max=50"`
		Notes           *string              `json:"notes"`
		ContactID       *uint                `json:"contact_id"`
		Data            *models.DivisionData `json:"data"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var deal models.Deal
	if err := dc.DB.Where("id = ? AND user_id = ?", dealID, user.ID).First(&deal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Deal not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deal", err)
	}

	if input.PropertyAddress != nil {
		deal.PropertyAddress = *input.PropertyAddress
	}
	if input.Value != nil {
		deal.Value = input.Value
	}
	if input.Probability != nil {
		deal.Probability = input.Probability
	}
	if input.Priority != nil {
		deal.Priority = *input.Priority
	}
	if input.ExpectedClose != nil {
		deal.ExpectedClose = input.ExpectedClose
	}
	if input.DealType != nil {
		deal.DealType = *input.DealType
	}
	if input.PropertyType != nil {
		deal.PropertyType = *input.PropertyType
	}
	if input.Notes != nil {
		deal.Notes = *input.Notes
	}
	if input.ContactID != nil {
		deal.ContactID = input.ContactID
	}
	if input.Data != nil {
		if err := input.Data.Validate(deal.Division); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid division data", err)
		}
		deal.Data = *input.Data
	}

	if err := dc.DB.Save(&deal).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update deal", err)
	}

	activity := models.DealActivity{
		DealID:       deal.ID,
		UserID:       user.ID,
		ActivityType: "updated",
		ActivityAt:   time.Now(),
	}
	if err := dc.DB.Create(&activity).Error; err != nil {
		dc.Logger.Printf("Failed to record deal activity: %v", err)
	}

	dc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceDeals,
		ID:       deal.ID,
	})

	return c.JSON(utils.SuccessResponse(deal))
}

// ChangeStage moves a deal to another stage within its division.
func (dc *DealController) ChangeStage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	dealID := c.Params("id")

	var input struct {
		StageID uint `json:"stage_id" validate:"required"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var deal models.Deal
	if err := dc.DB.Where("id = ? AND user_id = ?", dealID, user.ID).First(&deal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Deal not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deal", err)
	}

	stage, err := dc.validateStageDivision(input.StageID, deal.Division)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid stage for division", err)
	}
	if deal.StageID == stage.ID {
		return c.JSON(utils.SuccessResponse(deal))
	}

	fromStageID := deal.StageID
	deal.StageID = stage.ID

	tx := dc.DB.Begin()
	if err := tx.Save(&deal).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to move deal", err)
	}

	activity := models.DealActivity{
		DealID:       deal.ID,
		UserID:       user.ID,
		ActivityType: "stage_changed",
		FromStageID:  &fromStageID,
		ToStageID:    &stage.ID,
		ActivityAt:   time.Now(),
	}
	if err := tx.Create(&activity).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record stage change", err)
	}

	notification := models.Notification{
		UserID:  user.ID,
		Type:    models.NotificationDealStageChanged,
		Title:   "Deal moved to " + stage.Name,
		Message: fmt.Sprintf("%s is now in %s", deal.PropertyAddress, stage.Name),
		ActionURL: utils.Pointer(
			fmt.Sprintf("/deals/%d", deal.ID),
		),
		Data: map[string]string{
			"deal_id": strconv.FormatUint(uint64(deal.ID), 10),
		},
	}
	if err := tx.Create(&notification).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create notification", err)
	}

	tx.Commit()

	dc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventUpdate,
		Resource: realtime.ResourceDeals,
		ID:       deal.ID,
	})

	return c.JSON(utils.SuccessResponse(deal))
}

// DeleteDeal hard-deletes a deal and its dependent activity rows.
func (dc *DealController) DeleteDeal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	dealID := c.Params("id")

	tx := dc.DB.Begin()

	if err := tx.Where("deal_id = ?", dealID).Delete(&models.DealActivity{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete deal activities", err)
	}

	result := tx.Unscoped().Where("id = ? AND user_id = ?", dealID, user.ID).Delete(&models.Deal{})
	if result.Error != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete deal", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Deal not found", nil)
	}

	tx.Commit()

	dc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventDelete,
		Resource: realtime.ResourceDeals,
		ID:       utils.ParseUint(dealID),
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Deal deleted successfully",
	}))
}

// ImportDeals imports deals from CSV file
func (dc *DealController) ImportDeals(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	division := models.Division(c.Query("division"))
	if !division.IsValid() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "A valid division is required for import", nil)
	}

	var defaultStage models.Stage
	if err := dc.DB.Where("division = ? AND is_active = true", division).
		Order("display_order ASC").First(&defaultStage).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Division has no active stages to import into", err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File upload error", err)
	}

	// Check file size (max 5MB)
	if file.Size > 5<<20 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "File too large (max 5MB)", nil)
	}

	src, err := file.Open()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to open file", err)
	}
	defer src.Close()

	reader := csv.NewReader(src)
	records, err := reader.ReadAll()
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to parse CSV file", err)
	}

	if len(records) < 2 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "CSV file must have at least a header and one row", nil)
	}

	header := records[0]
	rows := records[1:]

	batchSize := 100
	var deals []models.Deal
	imported := 0

	for _, row := range rows {
		if len(row) != len(header) {
			continue // Skip malformed rows
		}

		rowData := make(map[string]string)
		for i, col := range header {
			rowData[col] = row[i]
		}

		address, ok := rowData["property_address"]
		if !ok || address == "" {
			continue // Skip rows without an address
		}

		deal := models.Deal{
			UserID:          user.ID,
			PropertyAddress: address,
			Division:        division,
			StageID:         defaultStage.ID,
			Priority:        models.PriorityMedium,
			DealType:        rowData["deal_type"],
			PropertyType:    rowData["property_type"],
			Notes:           rowData["notes"],
		}
		if p, ok := rowData["priority"]; ok && (p == models.PriorityHigh || p == models.PriorityMedium || p == models.PriorityLow) {
			deal.Priority = p
		}
		if raw, ok := rowData["value"]; ok && raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				deal.Value = &v
			}
		}
		if raw, ok := rowData["probability"]; ok && raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v >= 0 && v <= 100 {
				deal.Probability = &v
			}
		}
		if raw, ok := rowData["expected_close"]; ok && raw != "" {
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				deal.ExpectedClose = &t
			}
		}

		deals = append(deals, deal)

		if len(deals) >= batchSize {
			if err := dc.DB.Create(&deals).Error; err != nil {
				dc.Logger.Printf("Failed to import batch of deals: %v", err)
			} else {
				imported += len(deals)
			}
			deals = nil
		}
	}

	if len(deals) > 0 {
		if err := dc.DB.Create(&deals).Error; err != nil {
			dc.Logger.Printf("Failed to import final batch of deals: %v", err)
		} else {
			imported += len(deals)
		}
	}

	dc.Hub.Publish(c.Context(), realtime.Event{
		Event:    realtime.EventInsert,
		Resource: realtime.ResourceDeals,
	})

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message":    "Deals imported successfully",
		"total_rows": len(rows),
		"imported":   imported,
	}))
}

// ExportDeals exports deals to CSV
func (dc *DealController) ExportDeals(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var deals []models.Deal
	query := dc.DB.Preload("Stage").Where("user_id = ?", user.ID)
	if division := c.Query("division"); division != "" {
		query = query.Where("division = ?", division)
	}
	if err := query.Find(&deals).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deals", err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename=deals_export_"+time.Now().Format("20060102")+".csv")

	writer := csv.NewWriter(c)
	defer writer.Flush()

	header := []string{"property_address", "division", "stage", "value", "probability", "priority", "expected_close", "deal_type", "property_type"}
	if err := writer.Write(header); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate CSV", err)
	}

	for _, deal := range deals {
		value := ""
		if deal.Value != nil {
			value = strconv.FormatFloat(*deal.Value, 'f', 2, 64)
		}
		probability := ""
		if deal.Probability != nil {
			probability = strconv.Itoa(*deal.Probability)
		}
		expectedClose := ""
		if deal.ExpectedClose != nil {
			expectedClose = deal.ExpectedClose.Format("2006-01-02")
		}

		record := []string{
			deal.PropertyAddress,
			string(deal.Division),
			deal.Stage.Name,
			value,
			probability,
			deal.Priority,
			expectedClose,
			deal.DealType,
			deal.PropertyType,
		}
		if err := writer.Write(record); err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate CSV", err)
		}
	}

	return nil
}
