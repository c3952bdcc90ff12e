package controller

import (
	"fmt"
	"log"
	"time"

	"dealdesk/models"
	"dealdesk/pipeline"
	"dealdesk/realtime"
	"dealdesk/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const summaryCacheTTL = 5 * time.Minute

type AnalyticsController struct {
	DB     *gorm.DB
	Cache  *realtime.Cache
	Logger *log.Logger
}

func NewAnalyticsController(db *gorm.DB, cache *realtime.Cache, logger *log.Logger) *AnalyticsController {
	return &AnalyticsController{
		DB:     db,
		Cache:  cache,
		Logger: logger,
	}
}

// GetPipelineSummary returns the aggregated pipeline dashboard for one
// division. Summaries are cached per user and division; deal and stage
// writes invalidate the whole analytics prefix through the hub.
func (ac *AnalyticsController) GetPipelineSummary(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	division := models.Division(c.Query("division"))
	if !division.IsValid() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "A valid division is required", nil)
	}

	cacheKey := fmt.Sprintf("analytics:pipeline:%d:%s", user.ID, division)

	var cached pipeline.Summary
	hit, err := ac.Cache.Get(c.Context(), cacheKey, &cached)
	if err != nil {
		ac.Logger.Printf("Analytics cache read failed: %v", err)
	}
	if hit {
		return c.JSON(utils.SuccessResponse(cached))
	}

	var deals []models.Deal
	if err := ac.DB.Where("user_id = ? AND division = ?", user.ID, division).
		Find(&deals).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deals", err)
	}

	var stages []models.Stage
	if err := ac.DB.Where("division = ? AND is_active = true", division).
		Order("display_order ASC").Find(&stages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch stages", err)
	}

	summary := pipeline.Summarize(deals, stages, time.Now())

	if err := ac.Cache.Set(c.Context(), cacheKey, summary, summaryCacheTTL); err != nil {
		ac.Logger.Printf("Analytics cache write failed: %v", err)
	}

	return c.JSON(utils.SuccessResponse(summary))
}

// GetClosingDeals returns deals whose expected close falls inside the
// requested window (7 or 30 days from today, both bounds inclusive).
func (ac *AnalyticsController) GetClosingDeals(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	division := models.Division(c.Query("division"))
	if !division.IsValid() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "A valid division is required", nil)
	}

	days := pipeline.WeekWindowDays
	if c.Query("window") == "month" {
		days = pipeline.MonthWindowDays
	}

	var deals []models.Deal
	if err := ac.DB.Preload("Stage").
		Where("user_id = ? AND division = ?", user.ID, division).
		Where("expected_close IS NOT NULL").
		Find(&deals).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch deals", err)
	}

	win := pipeline.ClosingWindow(time.Now(), days)
	closing := make([]models.Deal, 0)
	for _, d := range deals {
		if win.Contains(d.ExpectedClose) {
			closing = append(closing, d)
		}
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"window_days": days,
		"deals":       closing,
		"total":       len(closing),
	}))
}
